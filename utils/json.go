package utils

import (
	"encoding/json"
)

func MarshalToJSON[T any](input T) (string, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// MarshalSnapshot encodes a before/after object for a pub/sub message.
// A nil pointer encodes to nil so consumers can tell "no previous state" apart from an empty one.
func MarshalSnapshot[T any](input *T) ([]byte, error) {
	if input == nil {
		return nil, nil
	}
	return json.Marshal(input)
}
