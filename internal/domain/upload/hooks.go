package upload

import (
	"context"
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

// Keys of AdditionalData.Values understood by the bundled hooks.
const (
	ValueUserID       = "user_id"
	ValueUploadID     = "upload_id"
	ValueOriginalName = "original_name"
)

// AdditionalData is caller context for a single add. A zero Timestamp means
// now. Values are passed unchanged to the naming and post-move hooks.
type AdditionalData struct {
	Timestamp time.Time
	Values    map[string]any
}

// Value returns Values[key], or nil.
func (d AdditionalData) Value(key string) any {
	if d.Values == nil {
		return nil
	}
	return d.Values[key]
}

// NameFunc builds the stored file name from the original one.
type NameFunc func(originalName string, data AdditionalData) string

// PostMoveFunc runs after a file has landed at targetPath. It is where
// persistence of stored files belongs.
type PostMoveFunc func(ctx context.Context, targetPath string, data AdditionalData)

var pathSeparators = regexp.MustCompile(`[\\/]`)

// RandomPrefixName prefixes the base name of originalName with a random
// number in [1111, 9999]. Names are not unique: two files with the same
// original name can draw the same prefix and overwrite each other.
func RandomPrefixName(originalName string, _ AdditionalData) string {
	parts := pathSeparators.Split(originalName, -1)
	return strconv.Itoa(1111+rand.Intn(8889)) + "-" + parts[len(parts)-1]
}

// NoopPostMove does nothing.
func NoopPostMove(context.Context, string, AdditionalData) {}

// Chain runs hooks in order.
func Chain(hooks ...PostMoveFunc) PostMoveFunc {
	return func(ctx context.Context, targetPath string, data AdditionalData) {
		for _, h := range hooks {
			if h != nil {
				h(ctx, targetPath, data)
			}
		}
	}
}
