package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/internal/identity"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/repo"
	"github.com/Skotchmaster/sale/internal/testutil"
)

var testTopics = events.Topics{Orders: "orders", Catalog: "catalog"}

type published struct {
	topic string
	key   string
	event any
}

type recorder struct {
	mu   sync.Mutex
	sent []published
}

func (r *recorder) Publish(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, published{topic: topic, key: key, event: event})
	return nil
}

// types lists the event type of every publish in order.
func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, p := range r.sent {
		switch ev := p.event.(type) {
		case OrderEvent:
			out = append(out, ev.Type)
		case CatalogEvent:
			out = append(out, ev.Type)
		}
	}
	return out
}

type env struct {
	db     *gorm.DB
	repo   *repo.GormRepo
	events *recorder
	notify Notifier
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &recorder{}
	return env{
		db:     db,
		repo:   repo.New(db),
		events: rec,
		notify: Notifier{Publisher: rec, Topics: testTopics},
	}
}

func userID(u models.User) identity.Identity {
	return identity.Identity{UserID: u.ID, Username: u.Username, Role: string(models.RoleUser)}
}

func adminID(u models.User) identity.Identity {
	return identity.Identity{UserID: u.ID, Username: u.Username, Role: string(models.RoleAdmin)}
}

func requireKind(t *testing.T, err error, kind error) *apperr.Error {
	t.Helper()
	require.ErrorIs(t, err, kind)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	return ae
}
