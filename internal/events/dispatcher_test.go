package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []string
	d.Subscribe(EventUserCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.SubjectID)
		return errors.New("ignored")
	})
	d.Subscribe(EventUserCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventCompanyDeleted, func(context.Context, Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventUserCreated, "u1", "admin", time.Now(), nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first:u1", "second:u1"}, got)
}

func TestNewEventAssignsID(t *testing.T) {
	a := NewEvent(EventCompanyCreated, "c1", "", time.Now(), CompanyPayload{Name: "Acme"})
	b := NewEvent(EventCompanyCreated, "c1", "", time.Now(), CompanyPayload{Name: "Acme"})
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
