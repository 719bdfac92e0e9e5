package topics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdr2/pan/internal/topics"
)

func moduleTopic(name, module string) topics.Topic {
	return topics.DefineModule(topics.Config{
		Name:        name,
		Module:      module,
		Description: "A topic for testing",
		Pattern:     name,
	})
}

func TestRegistry(t *testing.T) {
	registry := topics.NewRegistry()

	t.Run("Register and Get", func(t *testing.T) {
		err := registry.Register(moduleTopic("chat.message.new", "chat"))
		require.NoError(t, err)

		found, exists := registry.Get("chat.message.new")
		assert.True(t, exists)
		assert.Equal(t, "chat", found.Module)
		assert.False(t, found.RegisteredAt.IsZero(), "registration time should be stamped")
	})

	t.Run("Get non-existent topic", func(t *testing.T) {
		_, exists := registry.Get("no.such.topic")
		assert.False(t, exists)
	})

	t.Run("List preserves registration order", func(t *testing.T) {
		registry = topics.NewRegistry()
		require.NoError(t, registry.Register(moduleTopic("cart.item.add", "cart")))
		require.NoError(t, registry.Register(moduleTopic("auth.login", "auth")))
		require.NoError(t, registry.Register(moduleTopic("cart.item.remove", "cart")))

		var names []string
		for _, topic := range registry.List() {
			names = append(names, topic.Name)
		}
		assert.Equal(t, []string{"cart.item.add", "auth.login", "cart.item.remove"}, names)
	})

	t.Run("ListByModule", func(t *testing.T) {
		cartTopics := registry.ListByModule("cart")
		assert.Len(t, cartTopics, 2)
	})

	t.Run("Duplicate registration fails", func(t *testing.T) {
		registry = topics.NewRegistry()
		topic := moduleTopic("auth.login", "auth")
		require.NoError(t, registry.Register(topic))

		err := registry.Register(topic)
		var terr *topics.Error
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, topics.ErrorDuplicateRegistration, terr.Type)
	})

	t.Run("Reset empties the registry", func(t *testing.T) {
		registry.Reset()
		assert.Zero(t, registry.Count())
	})
}

func TestRegisterValidates(t *testing.T) {
	registry := topics.NewRegistry()

	err := registry.Register(moduleTopic("Not.Valid", "x"))
	var terr *topics.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, topics.ErrorValidationFailed, terr.Type)
}

func TestDefaultRegistryIsSingleton(t *testing.T) {
	assert.Same(t, topics.Default(), topics.Default())
}
