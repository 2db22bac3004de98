package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDirectChatID(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	id := DirectChatID(a, b)
	assert.Equal(t, id, DirectChatID(b, a), "chat ID must not depend on participant order")

	parts := strings.Split(id, "_")
	assert.Len(t, parts, 2)
	assert.ElementsMatch(t, []string{a.Hex(), b.Hex()}, parts)
	assert.LessOrEqual(t, parts[0], parts[1])
}
