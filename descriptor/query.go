package descriptor

import (
	"errors"

	"github.com/tidwall/gjson"
)

var ErrInvalidJSON = errors.New("descriptor: invalid JSON")

// Query evaluates a gjson path against a JSON descriptor, e.g.
// "root.methods.#.id" or `root.methods.#(id=="startBranch").block.name`.
func Query(data []byte, path string) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, ErrInvalidJSON
	}

	return gjson.GetBytes(data, path), nil
}
