package challan

import (
	"bytes"
	"context"
	"encoding/csv"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/numbering"
)

type mockRepository struct {
	mu       sync.Mutex
	challans map[int64]Challan
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{challans: make(map[int64]Challan), nextID: 1}
}

func (m *mockRepository) Create(_ context.Context, c Challan) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	m.challans[c.ID] = c
	return c.ID, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (Challan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challans[id]
	if !ok {
		return Challan{}, ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) GetByNumber(_ context.Context, scope string, number int64) (Challan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.challans {
		if c.Scope == scope && c.Number == number {
			return c, nil
		}
	}
	return Challan{}, ErrNotFound
}

func (m *mockRepository) List(_ context.Context, f ListFilter) ([]Challan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Challan
	for _, c := range m.challans {
		if f.VehicleNo != "" && c.VehicleNo != f.VehicleNo {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	total := len(out)
	if f.Limit > 0 {
		out = out[min(f.Offset, len(out)):min(f.Offset+f.Limit, len(out))]
	}
	return out, total, nil
}

func (m *mockRepository) Update(_ context.Context, c Challan) (Challan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challans[c.ID]; !ok {
		return Challan{}, ErrNotFound
	}
	c.UpdatedAt = time.Now()
	m.challans[c.ID] = c
	return c, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challans[id]; !ok {
		return ErrNotFound
	}
	delete(m.challans, id)
	return nil
}

type fixture struct {
	svc   *Service
	repo  *mockRepository
	store *numbering.MemoryStore
}

func newFixture(maxAttempts int) fixture {
	store := numbering.NewMemoryStore()
	alloc := numbering.NewAllocator(store,
		numbering.WithMaxAttempts(maxAttempts),
		numbering.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
	writer := documents.NewWriter(alloc, numbering.ScopeGlobal, nil)
	repo := newMockRepository()
	return fixture{svc: NewService(repo, writer, nil, "IN", nil), repo: repo, store: store}
}

func validRequest() Request {
	return Request{
		Date:        "2024-11-03",
		VehicleNo:   "rj-14 ga 0001",
		DriverName:  "Ramesh",
		DriverPhone: "98290 12345",
		From:        "Jaipur",
		To:          "Ahmedabad",
		Items: []ItemInput{
			{BiltyNumber: 14, Consignor: "Gupta Sons", Consignee: "Verma Stores", Packages: 10, Weight: decimal.NewFromInt(250), Freight: decimal.NewFromInt(1200)},
			{Consignee: "Patel Agencies", Packages: 3, Weight: decimal.NewFromInt(60), Freight: decimal.NewFromInt(400)},
		},
		Advance: decimal.NewFromInt(500),
	}
}

func TestCreateFirstChallanIsOne(t *testing.T) {
	fx := newFixture(5)
	res, err := fx.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, documents.Created{ID: 1, Number: 1, Scope: ""}, res)

	c, err := fx.svc.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "RJ14GA0001", c.VehicleNo)
	assert.Equal(t, "+919829012345", c.DriverPhone)
	assert.True(t, decimal.NewFromInt(1600).Equal(c.Freight))
	assert.True(t, decimal.NewFromInt(1100).Equal(c.Balance))
	assert.Equal(t, 13, c.TotalPackages())
}

func TestCreateRejectsEmptyItemsBeforeAllocation(t *testing.T) {
	fx := newFixture(5)
	req := validRequest()
	req.Items = []ItemInput{}

	_, err := fx.svc.Create(context.Background(), req)
	var verr *documents.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items")
	assert.Equal(t, documents.ReasonValidation, documents.Reason(err))

	_, found, err := fx.store.Read(context.Background(), numbering.DocChallan, "")
	require.NoError(t, err)
	assert.False(t, found, "a rejected challan must not consume a number")

	res, err := fx.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Number)
}

func TestCreateRejectsBadVehicleAndPhone(t *testing.T) {
	fx := newFixture(5)
	req := validRequest()
	req.VehicleNo = "truck"
	req.DriverPhone = "12"
	req.Items[0].Freight = decimal.NewFromInt(-5)

	_, err := fx.svc.Create(context.Background(), req)
	var verr *documents.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "vehicle_no")
	assert.Contains(t, verr.Fields, "driver_phone")
	assert.Contains(t, verr.Fields, "items[0].freight")
}

func TestConcurrentChallansGetDistinctNumbers(t *testing.T) {
	const n = 20
	fx := newFixture(n)

	var mu sync.Mutex
	seen := map[int64]bool{}
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := fx.svc.Create(context.Background(), validRequest())
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[res.Number], "number %d issued twice", res.Number)
			seen[res.Number] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, n)
}

func TestUpdateKeepsNumber(t *testing.T) {
	fx := newFixture(5)
	created, err := fx.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Items = req.Items[:1]
	req.Advance = decimal.Zero
	updated, err := fx.svc.Update(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, created.Number, updated.Number)
	assert.Equal(t, created.ID, updated.ID)
	assert.Len(t, updated.Items, 1)
	assert.True(t, decimal.NewFromInt(1200).Equal(updated.Balance))

	req.Items = nil
	_, err = fx.svc.Update(context.Background(), created.ID, req)
	assert.Equal(t, documents.ReasonValidation, documents.Reason(err))
}

func TestExportCSVOneRowPerItem(t *testing.T) {
	fx := newFixture(5)
	_, err := fx.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, fx.svc.ExportCSV(context.Background(), buf, ListFilter{}))
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "14", records[1][7])
	assert.Equal(t, "", records[2][7])
	assert.Equal(t, "Patel Agencies", records[2][9])
}

type countingNotifier struct{ calls int }

func (c *countingNotifier) Invalidate(context.Context) { c.calls++ }

func TestStoredChangesNotify(t *testing.T) {
	fx := newFixture(5)
	changes := &countingNotifier{}
	fx.svc.SetChangeNotifier(changes)
	ctx := context.Background()

	req := validRequest()
	req.Items = nil
	_, err := fx.svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, 0, changes.calls)

	res, err := fx.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	_, err = fx.svc.Update(ctx, res.ID, validRequest())
	require.NoError(t, err)
	require.NoError(t, fx.svc.Delete(ctx, res.ID))
	assert.Equal(t, 3, changes.calls)
}
