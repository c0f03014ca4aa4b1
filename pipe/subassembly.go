package pipe

// SubAssembly is a reusable element that stands for several pipes chained
// internally.
type SubAssembly interface {
	Pipe
	subAssembly()
}

// Rename renames FromFields to ToFields.
type Rename struct {
	element
	FromFields Fields
	ToFields   Fields
}

func (*Rename) subAssembly() {}

func NewRename(previous Pipe, fromFields Fields, toFields Fields) *Rename {
	rename := &Rename{FromFields: fromFields, ToFields: toFields}
	rename.inherit(previous)
	return rename
}

// Retain drops every field not in RetainFields.
type Retain struct {
	element
	RetainFields Fields
}

func (*Retain) subAssembly() {}

func NewRetain(previous Pipe, retainFields Fields) *Retain {
	retain := &Retain{RetainFields: retainFields}
	retain.inherit(previous)
	return retain
}

// AggregateBy groups on GroupingFields and runs every partial aggregation in
// one pass.
type AggregateBy struct {
	element
	GroupingFields Fields
	Partials       []AggregateByPartial
}

func (*AggregateBy) subAssembly() {}

func NewAggregateBy(previous Pipe, groupingFields Fields, assemblies ...AggregateByPartial) *AggregateBy {
	aggregateBy := &AggregateBy{GroupingFields: groupingFields, Partials: assemblies}
	aggregateBy.inherit(previous)
	return aggregateBy
}

// AggregateByPartial is one aggregation inside an AggregateBy.
type AggregateByPartial interface {
	Fields() (value Fields, result Fields)
	Trace() string
}

type partial struct {
	value, result Fields
	trace         string
}

func (p *partial) Fields() (Fields, Fields) { return p.value, p.result }
func (p *partial) Trace() string { return p.trace }
func (p *partial) SetTrace(t string) { p.trace = t }

type AverageBy struct{ partial }

func NewAverageBy(valueField Fields, averageField Fields) *AverageBy {
	return &AverageBy{partial{value: valueField, result: averageField}}
}

type SumBy struct{ partial }

func NewSumBy(valueField Fields, sumField Fields) *SumBy {
	return &SumBy{partial{value: valueField, result: sumField}}
}

type CountBy struct{ partial }

func NewCountBy(countField Fields) *CountBy {
	return &CountBy{partial{result: countField}}
}
