package item

import "fmt"

// Local self-test error codes.
const (
	ErrCodeUndefined    = "E206" // placeholder never declared
	ErrCodeSelfRelation = "E207" // item targets itself
)

// Error is a problem found by an item's local self-test.
type Error struct {
	Code     string
	ItemID   string
	Relation string
	Document string
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// SelfTest validates the item's own content, independent of the rest of the
// collection. It reports the first problem found.
func (it *Item) SelfTest() error {
	if it.IsPlaceholder() {
		return &Error{
			Code:     ErrCodeUndefined,
			ItemID:   it.id,
			Document: it.document,
			Message:  fmt.Sprintf("item %s is not defined", it.id),
		}
	}
	for _, rel := range it.Relations() {
		if it.HasTarget(rel, it.id) {
			return &Error{
				Code:     ErrCodeSelfRelation,
				ItemID:   it.id,
				Relation: rel,
				Document: it.document,
				Message:  fmt.Sprintf("item %s has relation %s to itself", it.id, rel),
			}
		}
	}
	return nil
}
