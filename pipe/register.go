package pipe

import (
	"errors"

	"github.com/invakid404/fluid/catalog"
)

type registration struct {
	fn         any
	properties []string
}

var registrations = []registration{
	{NewHead, []string{"name"}},
	{NewHeadFrom, []string{"previous", "name"}},
	{NewEachFunction, []string{"previous", "argumentSelector", "function", "outgoingSelector"}},
	{NewEachFilter, []string{"previous", "argumentSelector", "filter"}},
	{NewGroupBy, []string{"previous", "groupFields"}},
	{NewGroupBySorted, []string{"previous", "groupFields", "sortFields"}},
	{NewEveryAggregator, []string{"previous", "argumentSelector", "aggregator", "outgoingSelector"}},
	{NewEveryBuffer, []string{"previous", "argumentSelector", "buffer", "outgoingSelector"}},
	{NewCheckpoint, []string{"previous"}},
	{NewMerge, []string{"pipes"}},
	{NewHashJoin, []string{"lhs", "lhsJoinFields", "rhs", "rhsJoinFields"}},

	{NewRename, []string{"previous", "fromFields", "toFields"}},
	{NewRetain, []string{"previous", "retainFields"}},
	{NewAggregateBy, []string{"previous", "groupingFields", "assemblies"}},
	{NewAverageBy, []string{"valueField", "averageField"}},
	{NewSumBy, []string{"valueField", "sumField"}},
	{NewCountBy, []string{"countField"}},

	{NewIdentity, nil},
	{NewIdentityDeclared, []string{"fieldDeclaration"}},
	{NewRegexParser, []string{"patternString"}},
	{NewRegexParserDeclared, []string{"fieldDeclaration", "patternString"}},
	{NewRegexParserGroups, []string{"fieldDeclaration", "patternString", "groups"}},
	{NewDateParser, []string{"fieldDeclaration", "dateFormatString"}},
	{NewRegexFilter, []string{"patternString"}},
	{NewRegexFilterRemoving, []string{"patternString", "removeMatch"}},
	{NewCount, []string{"fieldDeclaration"}},
	{NewAverage, []string{"fieldDeclaration"}},
	{NewFirst, nil},
	{NewFirstDeclared, []string{"fieldDeclaration"}},
	{NewFirstN, []string{"firstN"}},
}

// Register adds every constructor of the package to r.
func Register(r *catalog.Registry) error {
	var errs []error
	for _, reg := range registrations {
		if err := r.Register(reg.fn, reg.properties...); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// NewRegistry returns a registry holding the pipe catalog.
func NewRegistry(opts ...catalog.Option) (*catalog.Registry, error) {
	r := catalog.NewRegistry(opts...)
	if err := Register(r); err != nil {
		return nil, err
	}

	return r, nil
}
