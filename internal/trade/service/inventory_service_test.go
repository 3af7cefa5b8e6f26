package service

import (
	"context"
	"testing"
	"time"

	"github.com/huakang/medtrade/internal/config"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"github.com/huakang/medtrade/internal/trade/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupInventoryTest(t *testing.T) (*gorm.DB, *Services, Actor, *entity.Drug) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	cfg := &config.Config{Order: config.OrderConfig{PendingExpiry: 24 * time.Hour, DefaultShelfLifeDays: 365}}
	svc := NewServices(repos, db, nil, zap.NewNop(), cfg)
	tenant := testutil.SeedTenant(t, db, "库存测试药店", entity.TenantTypePharmacy)
	drug := testutil.SeedDrug(t, db, "对乙酰氨基酚片")
	actor := Actor{UserID: "u-inv", Role: RolePharmacy, TenantID: tenant.ID}
	return db, svc, actor, drug
}

func TestCreateBatchAndMerge(t *testing.T) {
	db, svc, actor, drug := setupInventoryTest(t)
	ctx := context.Background()

	created, err := svc.Inventory.CreateBatch(ctx, actor, CreateBatchRequest{
		DrugID:         drug.ID,
		BatchNumber:    "MB-01",
		ProductionDate: "2026-01-01",
		ExpiryDate:     "2028-01-01",
		Quantity:       30,
		UnitPrice:      5.0,
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if created.Quantity != 30 {
		t.Errorf("expected quantity 30, got %d", created.Quantity)
	}

	// 同批次再次入库累加
	merged, err := svc.Inventory.CreateBatch(ctx, actor, CreateBatchRequest{
		DrugID:         drug.ID,
		BatchNumber:    "MB-01",
		ProductionDate: "2026-01-01",
		ExpiryDate:     "2028-01-01",
		Quantity:       20,
	})
	if err != nil {
		t.Fatalf("merge batch: %v", err)
	}
	if merged.Quantity != 50 {
		t.Errorf("expected merged quantity 50, got %d", merged.Quantity)
	}

	var n int64
	db.Model(&entity.InventoryTransaction{}).Where("transaction_type = ?", entity.TxTypeIn).Count(&n)
	if n != 2 {
		t.Errorf("expected 2 IN transactions, got %d", n)
	}

	// 非法日期
	if _, err := svc.Inventory.CreateBatch(ctx, actor, CreateBatchRequest{
		DrugID: drug.ID, BatchNumber: "MB-02",
		ProductionDate: "2028-01-01", ExpiryDate: "2026-01-01", Quantity: 5,
	}); err == nil {
		t.Error("expected expiry before production to fail")
	}
}

func TestAdjustNonNegative(t *testing.T) {
	db, svc, actor, drug := setupInventoryTest(t)
	ctx := context.Background()
	batch := testutil.SeedBatch(t, db, actor.TenantID, drug.ID, "ADJ-01", 10, time.Now().AddDate(1, 0, 0))

	adjusted, err := svc.Inventory.Adjust(ctx, actor, batch.ID, AdjustRequest{QuantityDelta: -4, Reason: "盘亏"})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if adjusted.Quantity != 6 {
		t.Errorf("expected 6 after adjust, got %d", adjusted.Quantity)
	}

	// 结果为负被拒绝，数量不变且无新流水
	if _, err := svc.Inventory.Adjust(ctx, actor, batch.ID, AdjustRequest{QuantityDelta: -10, Reason: "误操作"}); err == nil {
		t.Fatal("expected negative result to be rejected")
	}
	var after entity.InventoryItem
	db.First(&after, "id = ?", batch.ID)
	if after.Quantity != 6 {
		t.Errorf("expected quantity unchanged at 6, got %d", after.Quantity)
	}
	var n int64
	db.Model(&entity.InventoryTransaction{}).Where("transaction_type = ?", entity.TxTypeAdjust).Count(&n)
	if n != 1 {
		t.Errorf("expected 1 ADJUST transaction, got %d", n)
	}

	// 他人库存不可调整
	other := Actor{UserID: "u-z", Role: RolePharmacy, TenantID: testutil.SeedTenant(t, db, "别家药店", entity.TenantTypePharmacy).ID}
	if _, err := svc.Inventory.Adjust(ctx, other, batch.ID, AdjustRequest{QuantityDelta: 1, Reason: "试探"}); err == nil {
		t.Error("expected adjust on foreign inventory to fail")
	}
}

func TestInventoryListScopedToTenant(t *testing.T) {
	db, svc, actor, drug := setupInventoryTest(t)
	ctx := context.Background()
	other := testutil.SeedTenant(t, db, "另一家", entity.TenantTypeSupplier)
	testutil.SeedBatch(t, db, actor.TenantID, drug.ID, "L-01", 5, time.Now().AddDate(0, 0, 10))
	testutil.SeedBatch(t, db, other.ID, drug.ID, "L-02", 5, time.Now().AddDate(1, 0, 0))

	items, total, err := svc.Inventory.List(ctx, actor, repository.InventoryListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected only own batch, got %d", total)
	}
	// 近效期标记
	if !items[0].IsNearExpiry {
		t.Error("expected near-expiry flag for batch expiring in 10 days")
	}
	if items[0].IsLowStock != true {
		t.Error("expected low-stock flag for quantity 5")
	}
}
