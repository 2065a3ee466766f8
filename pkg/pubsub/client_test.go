package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
)

func TestResolveResourceNames(t *testing.T) {
	n := resourceNames{project: "safari-prod"}

	assert.Equal(t, "projects/safari-prod/topics/sb-order-events", n.resolve("topics", "sb-order-events"))
	assert.Equal(t, "projects/safari-prod/subscriptions/email", n.resolve("subscriptions", " email "))
	assert.Equal(t, "projects/other/topics/x", n.resolve("topics", "projects/other/topics/x"))
	assert.Equal(t, "projects/safari-prod/subscriptions/projects/other/topics/x", n.resolve("subscriptions", "projects/other/topics/x"))
	assert.Empty(t, n.resolve("subscriptions", ""))
	assert.Empty(t, resourceNames{}.resolve("topics", "x"))
}

func TestResourceConstructorsTrim(t *testing.T) {
	assert.Equal(t, Resource{kind: "topics", name: "orders"}, Topic(" orders "))
	assert.Equal(t, Resource{kind: "subscriptions", name: "email"}, Subscription("email"))
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("x"))
	assert.Nil(t, c.Subscriber("x"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestAuthOptions(t *testing.T) {
	assert.Len(t, authOptions(config.GCPConfig{CredentialsJSON: `{}`, ApplicationCredentials: "/tmp/x"}), 1)
	assert.Len(t, authOptions(config.GCPConfig{ApplicationCredentials: "/tmp/x"}), 1)
	assert.Empty(t, authOptions(config.GCPConfig{}))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}
