package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/grocerstock/internal/model"
	"github.com/hitoshi/grocerstock/internal/repository"
)

const (
	testUserID    = "user-1"
	testProductID = "3f1c1d2e-5b6a-4c7d-8e9f-0a1b2c3d4e5f"
	testItemID    = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

// --- モック ---

type mockInventoryRepo struct {
	listFn            func(ctx context.Context, userID string, filter model.InventoryFilter) ([]model.InventoryItemWithProduct, error)
	findWithProductFn func(ctx context.Context, userID, id string) (*model.InventoryItemWithProduct, error)
	addOrMergeFn      func(ctx context.Context, item model.NewInventoryItem, now time.Time) (string, bool, error)
	updateFn          func(ctx context.Context, userID, id string, update model.InventoryUpdate) (bool, error)
	deleteFn          func(ctx context.Context, userID, id string) (bool, error)
	listExpiringFn    func(ctx context.Context, userID string, from, to time.Time) ([]model.InventoryItemWithProduct, error)
}

func (m *mockInventoryRepo) List(ctx context.Context, userID string, filter model.InventoryFilter) ([]model.InventoryItemWithProduct, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, filter)
	}
	return nil, nil
}
func (m *mockInventoryRepo) FindWithProduct(ctx context.Context, userID, id string) (*model.InventoryItemWithProduct, error) {
	if m.findWithProductFn != nil {
		return m.findWithProductFn(ctx, userID, id)
	}
	return &model.InventoryItemWithProduct{InventoryItem: model.InventoryItem{ID: id, UserID: userID}}, nil
}
func (m *mockInventoryRepo) AddOrMerge(ctx context.Context, item model.NewInventoryItem, now time.Time) (string, bool, error) {
	if m.addOrMergeFn != nil {
		return m.addOrMergeFn(ctx, item, now)
	}
	return testItemID, false, nil
}
func (m *mockInventoryRepo) Update(ctx context.Context, userID, id string, update model.InventoryUpdate) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, update)
	}
	return true, nil
}
func (m *mockInventoryRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return true, nil
}
func (m *mockInventoryRepo) ListExpiring(ctx context.Context, userID string, from, to time.Time) ([]model.InventoryItemWithProduct, error) {
	if m.listExpiringFn != nil {
		return m.listExpiringFn(ctx, userID, from, to)
	}
	return nil, nil
}

var _ repository.InventoryRepository = (*mockInventoryRepo)(nil)

type mockProductRepo struct {
	repository.ProductRepository
	findByIDFn func(ctx context.Context, id string) (*model.Product, error)
}

func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.Product{ID: id, Name: "Milk"}, nil
}

type recordingMetrics struct {
	adds   int
	merges int
}

func (r *recordingMetrics) RecordCatalogLookup(string) {}
func (r *recordingMetrics) RecordCatalogLatency(time.Duration) {}
func (r *recordingMetrics) RecordHTTPStatus(int) {}
func (r *recordingMetrics) RecordBarcodeGenerated() {}
func (r *recordingMetrics) RecordInventoryAdd(merged bool) {
	r.adds++
	if merged {
		r.merges++
	}
}

func newTestService(inv *mockInventoryRepo, prod *mockProductRepo) (*Service, *recordingMetrics) {
	rec := &recordingMetrics{}
	svc := NewService(inv, prod, rec)
	svc.now = func() time.Time { return fixedNow }
	return svc, rec
}

func apiErrorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func strPtr(s string) *string { return &s }

// --- List ---

func TestList_DefaultsToActiveSortedByExpiry(t *testing.T) {
	var gotFilter model.InventoryFilter
	inv := &mockInventoryRepo{
		listFn: func(_ context.Context, userID string, filter model.InventoryFilter) ([]model.InventoryItemWithProduct, error) {
			gotFilter = filter
			return []model.InventoryItemWithProduct{itemExpiringIn(2, "Dairy", 1)}, nil
		},
	}
	svc, _ := newTestService(inv, &mockProductRepo{})

	result, err := svc.List(context.Background(), testUserID, ListParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotFilter.Status == nil || *gotFilter.Status != model.InventoryStatusActive {
		t.Errorf("status filter = %v, want active", gotFilter.Status)
	}
	if gotFilter.SortBy != "expiry_date" || !gotFilter.Ascending {
		t.Errorf("sort = %s asc=%v, want expiry_date asc", gotFilter.SortBy, gotFilter.Ascending)
	}
	if result.Items[0].Status != model.InventoryStatusExpiringSoon {
		t.Errorf("derived status = %q, want expiring_soon", result.Items[0].Status)
	}
	if result.Summary.ExpiringSoon != 1 || result.Summary.StatusCounts["expiring_soon"] != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}
}

func TestList_StatusAllDisablesFilter(t *testing.T) {
	var gotFilter model.InventoryFilter
	inv := &mockInventoryRepo{
		listFn: func(_ context.Context, _ string, filter model.InventoryFilter) ([]model.InventoryItemWithProduct, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	svc, _ := newTestService(inv, &mockProductRepo{})

	result, err := svc.List(context.Background(), testUserID, ListParams{Status: "all", SortBy: "name", SortOrder: "desc", Category: "Dairy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFilter.Status != nil {
		t.Errorf("status filter = %v, want nil", *gotFilter.Status)
	}
	if gotFilter.SortBy != "name" || gotFilter.Ascending {
		t.Errorf("sort = %s asc=%v, want name desc", gotFilter.SortBy, gotFilter.Ascending)
	}
	if gotFilter.Category != "Dairy" {
		t.Errorf("category = %q", gotFilter.Category)
	}
	if result.Items == nil {
		t.Error("items should be an empty slice, not nil")
	}
}

func TestList_InvalidParams(t *testing.T) {
	tests := []ListParams{
		{Status: "consumed"},
		{SortBy: "password_hash"},
		{SortOrder: "sideways"},
	}
	svc, _ := newTestService(&mockInventoryRepo{}, &mockProductRepo{})

	for _, params := range tests {
		_, err := svc.List(context.Background(), testUserID, params)
		if apiErrorCode(err) != model.ErrCodeInvalidRequest {
			t.Errorf("params %+v: code = %q, want %q", params, apiErrorCode(err), model.ErrCodeInvalidRequest)
		}
	}
}

// --- Add ---

func TestAdd_NewItem(t *testing.T) {
	var got model.NewInventoryItem
	inv := &mockInventoryRepo{
		addOrMergeFn: func(_ context.Context, item model.NewInventoryItem, _ time.Time) (string, bool, error) {
			got = item
			return testItemID, false, nil
		},
	}
	svc, rec := newTestService(inv, &mockProductRepo{})

	item, err := svc.Add(context.Background(), testUserID, AddInput{
		ProductID:  testProductID,
		Quantity:   2,
		ExpiryDate: strPtr("2024-05-20"),
		Location:   strPtr("  <b>fridge</b> "),
		Notes:      strPtr("opened"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.ID != testItemID {
		t.Errorf("item id = %q, want %q", item.ID, testItemID)
	}
	if got.UserID != testUserID || got.ProductID != testProductID || got.Quantity != 2 {
		t.Errorf("unexpected add input: %+v", got)
	}
	if got.ExpiryDate == nil || !got.ExpiryDate.Equal(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expiry = %v", got.ExpiryDate)
	}
	if got.Location == nil || *got.Location != "fridge" {
		t.Errorf("location = %v, want sanitized fridge", got.Location)
	}
	if rec.adds != 1 || rec.merges != 0 {
		t.Errorf("metrics adds=%d merges=%d", rec.adds, rec.merges)
	}
}

func TestAdd_MergeIsRecorded(t *testing.T) {
	inv := &mockInventoryRepo{
		addOrMergeFn: func(_ context.Context, _ model.NewInventoryItem, _ time.Time) (string, bool, error) {
			return testItemID, true, nil
		},
	}
	svc, rec := newTestService(inv, &mockProductRepo{})

	if _, err := svc.Add(context.Background(), testUserID, AddInput{ProductID: testProductID, Quantity: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.merges != 1 {
		t.Errorf("merges = %d, want 1", rec.merges)
	}
}

func TestAdd_Validation(t *testing.T) {
	called := false
	inv := &mockInventoryRepo{
		addOrMergeFn: func(context.Context, model.NewInventoryItem, time.Time) (string, bool, error) {
			called = true
			return "", false, nil
		},
	}
	svc, _ := newTestService(inv, &mockProductRepo{})

	tests := []struct {
		name  string
		input AddInput
		code  string
	}{
		{"missing product", AddInput{Quantity: 1}, model.ErrCodeInvalidRequest},
		{"bad product id", AddInput{ProductID: "abc", Quantity: 1}, model.ErrCodeInvalidID},
		{"zero quantity", AddInput{ProductID: testProductID}, model.ErrCodeInvalidRequest},
		{"negative quantity", AddInput{ProductID: testProductID, Quantity: -1}, model.ErrCodeInvalidRequest},
		{"bad expiry", AddInput{ProductID: testProductID, Quantity: 1, ExpiryDate: strPtr("next week")}, model.ErrCodeInvalidExpiryDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), testUserID, tt.input)
			if apiErrorCode(err) != tt.code {
				t.Errorf("code = %q, want %q (err=%v)", apiErrorCode(err), tt.code, err)
			}
		})
	}
	if called {
		t.Error("store should not be written on validation failure")
	}
}

func TestAdd_ProductNotFound(t *testing.T) {
	prod := &mockProductRepo{
		findByIDFn: func(context.Context, string) (*model.Product, error) { return nil, nil },
	}
	svc, _ := newTestService(&mockInventoryRepo{}, prod)

	_, err := svc.Add(context.Background(), testUserID, AddInput{ProductID: testProductID, Quantity: 1})
	if apiErrorCode(err) != model.ErrCodeProductNotFound {
		t.Errorf("code = %q, want %q", apiErrorCode(err), model.ErrCodeProductNotFound)
	}
}

// --- Update ---

func TestUpdate_ParsesFieldsAndClearsExpiry(t *testing.T) {
	var got model.InventoryUpdate
	inv := &mockInventoryRepo{
		updateFn: func(_ context.Context, userID, id string, update model.InventoryUpdate) (bool, error) {
			got = update
			return true, nil
		},
	}
	svc, _ := newTestService(inv, &mockProductRepo{})

	qty := 4.0
	_, err := svc.Update(context.Background(), testUserID, testItemID, UpdateInput{
		Quantity:    &qty,
		ClearExpiry: true,
		Status:      strPtr("expired"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Quantity == nil || *got.Quantity != 4 {
		t.Errorf("quantity = %v", got.Quantity)
	}
	if !got.ClearExpiry || got.ExpiryDate != nil {
		t.Errorf("expiry should be cleared: %+v", got)
	}
	if got.Status == nil || *got.Status != model.InventoryStatusExpired {
		t.Errorf("status = %v", got.Status)
	}
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		itemID string
		input  UpdateInput
		repo   *mockInventoryRepo
		code   string
	}{
		{"bad id", "nope", UpdateInput{Location: strPtr("fridge")}, &mockInventoryRepo{}, model.ErrCodeInvalidID},
		{"empty", testItemID, UpdateInput{}, &mockInventoryRepo{}, model.ErrCodeInvalidRequest},
		{"bad status", testItemID, UpdateInput{Status: strPtr("eaten")}, &mockInventoryRepo{}, model.ErrCodeInvalidRequest},
		{"bad expiry", testItemID, UpdateInput{ExpiryDate: strPtr("05/01/2024")}, &mockInventoryRepo{}, model.ErrCodeInvalidExpiryDate},
		{"not owned", testItemID, UpdateInput{Notes: strPtr("x")}, &mockInventoryRepo{
			updateFn: func(context.Context, string, string, model.InventoryUpdate) (bool, error) { return false, nil },
		}, model.ErrCodeInventoryItemNotFound},
		{"reactivation conflict", testItemID, UpdateInput{Status: strPtr("active")}, &mockInventoryRepo{
			updateFn: func(context.Context, string, string, model.InventoryUpdate) (bool, error) {
				return false, &repository.DuplicateError{Constraint: repository.ConstraintActiveInventory}
			},
		}, model.ErrCodeActiveItemExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(tt.repo, &mockProductRepo{})
			_, err := svc.Update(context.Background(), testUserID, tt.itemID, tt.input)
			if apiErrorCode(err) != tt.code {
				t.Errorf("code = %q, want %q (err=%v)", apiErrorCode(err), tt.code, err)
			}
		})
	}
}

// --- Delete ---

func TestDelete_NotFound(t *testing.T) {
	inv := &mockInventoryRepo{
		deleteFn: func(context.Context, string, string) (bool, error) { return false, nil },
	}
	svc, _ := newTestService(inv, &mockProductRepo{})

	err := svc.Delete(context.Background(), testUserID, testItemID)
	if apiErrorCode(err) != model.ErrCodeInventoryItemNotFound {
		t.Errorf("code = %q, want %q", apiErrorCode(err), model.ErrCodeInventoryItemNotFound)
	}
}

func TestDelete_WrapsStoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	inv := &mockInventoryRepo{
		deleteFn: func(context.Context, string, string) (bool, error) { return false, storeErr },
	}
	svc, _ := newTestService(inv, &mockProductRepo{})

	err := svc.Delete(context.Background(), testUserID, testItemID)
	if !errors.Is(err, storeErr) {
		t.Errorf("err = %v, want wrapped store error", err)
	}
}

// --- Expiring ---

func TestExpiring_WindowFromNow(t *testing.T) {
	var gotFrom, gotTo time.Time
	inv := &mockInventoryRepo{
		listExpiringFn: func(_ context.Context, _ string, from, to time.Time) ([]model.InventoryItemWithProduct, error) {
			gotFrom, gotTo = from, to
			return []model.InventoryItemWithProduct{itemExpiringIn(2, "Dairy", 1)}, nil
		},
	}
	svc, _ := newTestService(inv, &mockProductRepo{})

	result, err := svc.Expiring(context.Background(), testUserID, DefaultExpiringDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotFrom.Equal(fixedNow) || !gotTo.Equal(fixedNow.AddDate(0, 0, 7)) {
		t.Errorf("window = [%v, %v]", gotFrom, gotTo)
	}
	if result.ThresholdDays != 7 {
		t.Errorf("ThresholdDays = %d, want 7", result.ThresholdDays)
	}
	if d := result.Items[0].DaysRemaining; d == nil || *d != 2 {
		t.Errorf("DaysRemaining = %v, want 2", d)
	}
}

func TestExpiring_NegativeDays(t *testing.T) {
	svc, _ := newTestService(&mockInventoryRepo{}, &mockProductRepo{})

	_, err := svc.Expiring(context.Background(), testUserID, -1)
	if apiErrorCode(err) != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", apiErrorCode(err), model.ErrCodeInvalidRequest)
	}
}
