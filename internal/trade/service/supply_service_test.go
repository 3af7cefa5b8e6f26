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

func setupSupplyTest(t *testing.T) (*gorm.DB, *Services, Actor, *entity.Drug) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	cfg := &config.Config{Order: config.OrderConfig{PendingExpiry: 24 * time.Hour, DefaultShelfLifeDays: 365}}
	svc := NewServices(repos, db, nil, zap.NewNop(), cfg)
	supplier := testutil.SeedTenant(t, db, "挂牌测试供应商", entity.TenantTypeSupplier)
	drug := testutil.SeedDrug(t, db, "头孢克肟分散片")
	actor := Actor{UserID: "u-sup", Role: RoleSupplier, TenantID: supplier.ID}
	return db, svc, actor, drug
}

func TestSupplyCreateClampedByStock(t *testing.T) {
	db, svc, actor, drug := setupSupplyTest(t)
	ctx := context.Background()
	testutil.SeedBatch(t, db, actor.TenantID, drug.ID, "S-01", 40, time.Now().AddDate(1, 0, 0))

	validUntil := time.Now().AddDate(0, 3, 0).Format("2006-01-02")

	// 超出在库总量被拒
	if _, err := svc.Supply.Create(ctx, actor, CreateSupplyRequest{
		DrugID: drug.ID, AvailableQuantity: 41, UnitPrice: 3.5, ValidUntil: validUntil,
	}); err == nil {
		t.Fatal("expected listing above stock to fail")
	}

	info, err := svc.Supply.Create(ctx, actor, CreateSupplyRequest{
		DrugID: drug.ID, AvailableQuantity: 40, UnitPrice: 3.5, ValidUntil: validUntil,
	})
	if err != nil {
		t.Fatalf("create supply: %v", err)
	}
	if info.Status != entity.SupplyStatusActive {
		t.Errorf("expected ACTIVE, got %s", info.Status)
	}
	if info.MinOrderQuantity != 1 {
		t.Errorf("expected default min order 1, got %d", info.MinOrderQuantity)
	}

	// 过期日期不能早于今天
	if _, err := svc.Supply.Create(ctx, actor, CreateSupplyRequest{
		DrugID: drug.ID, AvailableQuantity: 10, UnitPrice: 3.5,
		ValidUntil: time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
	}); err == nil {
		t.Error("expected past valid_until to fail")
	}
}

func TestSupplyUpdateOwnershipAndStatus(t *testing.T) {
	db, svc, actor, drug := setupSupplyTest(t)
	ctx := context.Background()
	testutil.SeedBatch(t, db, actor.TenantID, drug.ID, "S-02", 100, time.Now().AddDate(1, 0, 0))
	info := testutil.SeedSupply(t, db, actor.TenantID, drug.ID, 50, 4.0)

	// 数量改为0自动下架
	zero := 0
	updated, err := svc.Supply.Update(ctx, actor, info.ID, UpdateSupplyRequest{AvailableQuantity: &zero})
	if err != nil {
		t.Fatalf("update supply: %v", err)
	}
	if updated.Status != entity.SupplyStatusInactive {
		t.Errorf("expected INACTIVE at zero, got %s", updated.Status)
	}

	// 恢复数量自动上架
	qty := 20
	updated, err = svc.Supply.Update(ctx, actor, info.ID, UpdateSupplyRequest{AvailableQuantity: &qty})
	if err != nil {
		t.Fatalf("update supply: %v", err)
	}
	if updated.Status != entity.SupplyStatusActive {
		t.Errorf("expected ACTIVE after restock, got %s", updated.Status)
	}

	// 他人挂牌不可修改
	stranger := Actor{UserID: "u-y", Role: RoleSupplier, TenantID: testutil.SeedTenant(t, db, "别家供应商", entity.TenantTypeSupplier).ID}
	if _, err := svc.Supply.Update(ctx, stranger, info.ID, UpdateSupplyRequest{AvailableQuantity: &qty}); err == nil {
		t.Error("expected update by stranger to fail")
	}
}
