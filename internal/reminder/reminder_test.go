package reminder

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/party"
	"github.com/carrierdesk/carrierdesk/internal/platform/httpx"
	"github.com/carrierdesk/carrierdesk/internal/shared"
)

type mockRepository struct {
	mu       sync.Mutex
	dues     []Outstanding
	recorded []Reminder
}

func (m *mockRepository) Outstanding(context.Context) ([]Outstanding, error) {
	return m.dues, nil
}

func (m *mockRepository) OutstandingFor(_ context.Context, partyID int64) (Outstanding, error) {
	for _, d := range m.dues {
		if d.PartyID == partyID {
			return d, nil
		}
	}
	return Outstanding{PartyID: partyID}, nil
}

func (m *mockRepository) Record(_ context.Context, r Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, r)
	return nil
}

func (m *mockRepository) ListForParty(_ context.Context, partyID int64, _ int) ([]Reminder, error) {
	var out []Reminder
	for _, r := range m.recorded {
		if r.PartyID == partyID {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubDirectory map[int64]party.Party

func (d stubDirectory) Get(_ context.Context, id int64) (party.Party, error) {
	p, ok := d[id]
	if !ok {
		return party.Party{}, party.ErrNotFound
	}
	return p, nil
}

func newTestService() (*Service, *mockRepository) {
	repo := &mockRepository{dues: []Outstanding{
		{PartyID: 1, PartyName: "Verma Stores", Phone: "+919876543210", Amount: decimal.RequireFromString("4500"), Bilties: []string{"12/2024-25", "15/2024-25"}},
		{PartyID: 2, PartyName: "No Phone Co", Amount: decimal.NewFromInt(300), Bilties: []string{"3/2024-25"}},
	}}
	dir := stubDirectory{
		1: {ID: 1, Name: "Verma Stores", Phone: "+919876543210"},
		2: {ID: 2, Name: "No Phone Co"},
		3: {ID: 3, Name: "Settled Ltd", Phone: "+919812345678"},
	}
	return NewService(repo, dir, "Shree Transport", "IN", nil), repo
}

func TestBuildLink(t *testing.T) {
	link, err := BuildLink("098765 43210", "IN", Message{
		PartyName: "Verma Stores",
		Company:   "Shree Transport",
		Amount:    decimal.NewFromInt(4500),
		Bilties:   []string{"12/2024-25"},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://wa.me/919876543210?text="))

	u, err := url.Parse(link)
	require.NoError(t, err)
	text := u.Query().Get("text")
	assert.Contains(t, text, "Dear Verma Stores")
	assert.Contains(t, text, "4,500.00")
	assert.Contains(t, text, "bilty no. 12/2024-25")
	assert.True(t, strings.HasSuffix(text, "- Shree Transport"))

	_, err = BuildLink("", "IN", Message{})
	assert.ErrorIs(t, err, ErrNoPhone)
}

func TestSendUsesOutstandingBalance(t *testing.T) {
	svc, repo := newTestService()
	rem, err := svc.Send(context.Background(), 1, SendRequest{})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4500).Equal(rem.Amount))
	assert.Equal(t, SourceManual, rem.Source)
	assert.Contains(t, rem.Link, "15%2F2024-25")
	require.Len(t, repo.recorded, 1)
	assert.Equal(t, rem.ID, repo.recorded[0].ID)
}

func TestSendExplicitAmount(t *testing.T) {
	svc, _ := newTestService()
	rem, err := svc.Send(context.Background(), 3, SendRequest{Amount: decimal.NewFromInt(999)})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(999).Equal(rem.Amount))
	assert.NotContains(t, rem.Link, "bilty")
}

func TestSendFailures(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Send(context.Background(), 2, SendRequest{})
	var verr *documents.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "phone")

	_, err = svc.Send(context.Background(), 3, SendRequest{})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "amount")

	_, err = svc.Send(context.Background(), 40, SendRequest{})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Empty(t, repo.recorded)
}

func TestDigestSkipsPartiesWithoutPhone(t *testing.T) {
	svc, repo := newTestService()
	sent, err := svc.Digest(context.Background())
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, int64(1), sent[0].PartyID)
	assert.Equal(t, SourceDigest, sent[0].Source)
	assert.Len(t, repo.recorded, 1)
}

func TestDigestRunnerHonoursLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := redislock.New(client)

	svc, repo := newTestService()
	runner := NewDigestRunner(svc, locker, nil)

	held, err := locker.Obtain(context.Background(), shared.JobLockKey("reminder-digest"), DigestLockTTL, nil)
	require.NoError(t, err)
	n, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, repo.recorded)

	require.NoError(t, held.Release(context.Background()))
	n, err = runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists(shared.JobLockKey("reminder-digest")))
}
