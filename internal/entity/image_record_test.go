package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		owner    string // "" means nil expected
		fileName string
	}{
		{name: "user namespace", key: "alice/cat.png", owner: "alice", fileName: "cat.png"},
		{name: "general namespace", key: "general/cat.png", owner: "", fileName: "cat.png"},
		{name: "nested path", key: "bob/2024/dog.jpg", owner: "bob", fileName: "dog.jpg"},
		{name: "bare file name", key: "cat.png", owner: "", fileName: "cat.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, fileName := SplitObjectKey(tt.key)

			assert.Equal(t, tt.fileName, fileName)

			if tt.owner == "" {
				assert.Nil(t, owner)
			} else {
				require.NotNil(t, owner)
				assert.Equal(t, tt.owner, *owner)
			}
		})
	}
}
