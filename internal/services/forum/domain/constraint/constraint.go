// Package constraint enforces byte-length bounds on user supplied text.
package constraint

// Length bounds a text field to [Min, Min+MaxMinDiff] bytes. Storing the
// difference instead of the maximum makes max < min unrepresentable.
type Length struct {
	Min        uint16 `json:"min" yaml:"min"`
	MaxMinDiff uint16 `json:"max_min_diff" yaml:"max_min_diff"`
}

// Max returns the largest accepted length.
func (c Length) Max() int {
	return int(c.Min) + int(c.MaxMinDiff)
}

// EnsureValid returns tooShort when length is below Min, tooLong when it is
// above Max, and nil otherwise.
func (c Length) EnsureValid(length int, tooShort, tooLong error) error {
	if length < int(c.Min) {
		return tooShort
	}
	if length > c.Max() {
		return tooLong
	}
	return nil
}

// Set groups the six independently configured text constraints.
type Set struct {
	CategoryTitle             Length `json:"category_title" yaml:"category_title"`
	CategoryDescription       Length `json:"category_description" yaml:"category_description"`
	ThreadTitle               Length `json:"thread_title" yaml:"thread_title"`
	PostText                  Length `json:"post_text" yaml:"post_text"`
	ThreadModerationRationale Length `json:"thread_moderation_rationale" yaml:"thread_moderation_rationale"`
	PostModerationRationale   Length `json:"post_moderation_rationale" yaml:"post_moderation_rationale"`
}

// DefaultSet returns the bounds a fresh forum starts with.
func DefaultSet() Set {
	return Set{
		CategoryTitle:             Length{Min: 10, MaxMinDiff: 140},
		CategoryDescription:       Length{Min: 10, MaxMinDiff: 140},
		ThreadTitle:               Length{Min: 3, MaxMinDiff: 43},
		PostText:                  Length{Min: 1, MaxMinDiff: 1001},
		ThreadModerationRationale: Length{Min: 100, MaxMinDiff: 2000},
		PostModerationRationale:   Length{Min: 100, MaxMinDiff: 2000},
	}
}
