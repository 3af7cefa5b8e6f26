package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/huakang/medtrade/internal/config"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"github.com/huakang/medtrade/internal/trade/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type orderTestEnv struct {
	db       *gorm.DB
	svc      *Services
	buyer    *entity.Tenant
	supplier *entity.Tenant
	drug     *entity.Drug
}

func setupOrderTest(t *testing.T) *orderTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	cfg := &config.Config{Order: config.OrderConfig{
		PendingExpiry:        24 * time.Hour,
		DefaultShelfLifeDays: 365,
	}}
	svc := NewServices(repos, db, nil, zap.NewNop(), cfg)

	return &orderTestEnv{
		db:       db,
		svc:      svc,
		buyer:    testutil.SeedTenant(t, db, "测试药店", entity.TenantTypePharmacy),
		supplier: testutil.SeedTenant(t, db, "测试供应商", entity.TenantTypeSupplier),
		drug:     testutil.SeedDrug(t, db, "阿莫西林胶囊"),
	}
}

func (e *orderTestEnv) buyerActor() Actor {
	return Actor{UserID: "u-buyer", Role: RolePharmacy, TenantID: e.buyer.ID}
}

func (e *orderTestEnv) supplierActor() Actor {
	return Actor{UserID: "u-supplier", Role: RoleSupplier, TenantID: e.supplier.ID}
}

func (e *orderTestEnv) reloadSupply(t *testing.T, id string) *entity.SupplyInfo {
	t.Helper()
	var info entity.SupplyInfo
	if err := e.db.First(&info, "id = ?", id).Error; err != nil {
		t.Fatalf("reload supply info: %v", err)
	}
	return &info
}

func (e *orderTestEnv) countTransactions(t *testing.T, txType string) int64 {
	t.Helper()
	var n int64
	e.db.Model(&entity.InventoryTransaction{}).Where("transaction_type = ?", txType).Count(&n)
	return n
}

func TestCreateOrderReservesAndCancelRestores(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B-100", 100, time.Now().AddDate(1, 0, 0))
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 50, 12.5)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Status != entity.OrderStatusPending {
		t.Errorf("expected PENDING, got %s", order.Status)
	}
	if order.Items[0].UnitPrice != 12.5 {
		t.Errorf("expected locked unit price 12.5, got %v", order.Items[0].UnitPrice)
	}

	after := env.reloadSupply(t, supply.ID)
	if after.AvailableQuantity != 40 {
		t.Errorf("expected reserved quantity 40, got %d", after.AvailableQuantity)
	}

	// 取消后恢复
	if _, err := env.svc.Order.Cancel(ctx, env.buyerActor(), order.ID, CancelOrderRequest{Reason: "不需要了"}); err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	restored := env.reloadSupply(t, supply.ID)
	if restored.AvailableQuantity != 50 {
		t.Errorf("expected restored quantity 50, got %d", restored.AvailableQuantity)
	}
	if restored.Status != entity.SupplyStatusActive {
		t.Errorf("expected ACTIVE after restore, got %s", restored.Status)
	}
}

func TestCreateOrderSupplyExhaustionDeactivates(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B-100", 100, time.Now().AddDate(1, 0, 0))
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 10, 8.0)

	if _, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     10,
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	after := env.reloadSupply(t, supply.ID)
	if after.AvailableQuantity != 0 {
		t.Errorf("expected 0 remaining, got %d", after.AvailableQuantity)
	}
	if after.Status != entity.SupplyStatusInactive {
		t.Errorf("expected INACTIVE at zero quantity, got %s", after.Status)
	}
}

func TestCreateOrderInsufficientSupplyRejected(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 5, 8.0)

	_, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     6,
	})
	if err == nil {
		t.Fatal("expected rejection when quantity exceeds available")
	}
	if _, ok := err.(*StateConflictError); !ok {
		t.Fatalf("expected StateConflictError, got %T: %v", err, err)
	}

	var n int64
	env.db.Model(&entity.Order{}).Count(&n)
	if n != 0 {
		t.Errorf("expected no order persisted, found %d", n)
	}
}

func TestConfirmRejectRestoresSupply(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 30, 9.0)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     30,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if env.reloadSupply(t, supply.ID).AvailableQuantity != 0 {
		t.Fatal("expected full reservation")
	}

	// 拒绝必须带原因
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "reject"}); err == nil {
		t.Fatal("expected rejection without reason to fail")
	}

	rejected, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "reject", Reason: "缺货"})
	if err != nil {
		t.Fatalf("reject order: %v", err)
	}
	if rejected.Status != entity.OrderStatusCancelledBySupplier {
		t.Errorf("expected CANCELLED_BY_SUPPLIER, got %s", rejected.Status)
	}
	restored := env.reloadSupply(t, supply.ID)
	if restored.AvailableQuantity != 30 {
		t.Errorf("expected restored 30, got %d", restored.AvailableQuantity)
	}
	if restored.Status != entity.SupplyStatusActive {
		t.Errorf("expected ACTIVE after restore, got %s", restored.Status)
	}
}

func TestShipDeductsFIFOByExpiry(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	near := testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B-NEAR", 5, time.Now().AddDate(0, 3, 0))
	far := testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B-FAR", 7, time.Now().AddDate(1, 0, 0))
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 12, 10.0)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "accept"}); err != nil {
		t.Fatalf("confirm order: %v", err)
	}

	shipped, err := env.svc.Order.Ship(ctx, env.supplierActor(), order.ID, ShipOrderRequest{TrackingNumber: "SF123456"})
	if err != nil {
		t.Fatalf("ship order: %v", err)
	}
	if shipped.Status != entity.OrderStatusShipped {
		t.Errorf("expected SHIPPED, got %s", shipped.Status)
	}
	if shipped.ShippedAt == nil {
		t.Error("expected shipped_at stamped")
	}

	// 临期批次先耗尽，剩余从远期批次扣
	var nearAfter, farAfter entity.InventoryItem
	env.db.First(&nearAfter, "id = ?", near.ID)
	env.db.First(&farAfter, "id = ?", far.ID)
	if nearAfter.Quantity != 0 {
		t.Errorf("expected near batch exhausted, got %d", nearAfter.Quantity)
	}
	if farAfter.Quantity != 2 {
		t.Errorf("expected far batch 2 remaining, got %d", farAfter.Quantity)
	}

	// 每次消耗一条OUT流水
	var outs []entity.InventoryTransaction
	env.db.Where("transaction_type = ?", entity.TxTypeOut).Order("created_at ASC").Find(&outs)
	if len(outs) != 2 {
		t.Fatalf("expected 2 OUT transactions, got %d", len(outs))
	}
	if outs[0].QuantityDelta != -5 || outs[1].QuantityDelta != -5 {
		t.Errorf("expected deltas -5/-5, got %d/%d", outs[0].QuantityDelta, outs[1].QuantityDelta)
	}
	for _, tx := range outs {
		if tx.RelatedOrderID == nil || *tx.RelatedOrderID != order.ID {
			t.Error("expected OUT transaction linked to order")
		}
		if tx.SourceTenantID == nil || *tx.SourceTenantID != env.buyer.ID {
			t.Error("expected OUT counterparty to be buyer tenant")
		}
	}
}

func TestShipInsufficientInventoryIsAtomic(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	batch := testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B-SMALL", 6, time.Now().AddDate(1, 0, 0))
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 20, 10.0)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "accept"}); err != nil {
		t.Fatalf("confirm order: %v", err)
	}

	_, err = env.svc.Order.Ship(ctx, env.supplierActor(), order.ID, ShipOrderRequest{})
	if err == nil {
		t.Fatal("expected ship to fail on insufficient inventory")
	}
	if _, ok := err.(*StateConflictError); !ok {
		t.Fatalf("expected StateConflictError, got %T: %v", err, err)
	}

	// 整体回滚：订单仍为 CONFIRMED，批次未扣，无流水
	var after entity.Order
	env.db.First(&after, "id = ?", order.ID)
	if after.Status != entity.OrderStatusConfirmed {
		t.Errorf("expected order to remain CONFIRMED, got %s", after.Status)
	}
	var batchAfter entity.InventoryItem
	env.db.First(&batchAfter, "id = ?", batch.ID)
	if batchAfter.Quantity != 6 {
		t.Errorf("expected batch untouched at 6, got %d", batchAfter.Quantity)
	}
	if n := env.countTransactions(t, entity.TxTypeOut); n != 0 {
		t.Errorf("expected zero OUT transactions, got %d", n)
	}
}

func TestShipPinnedBatchExactMatch(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B-OTHER", 100, time.Now().AddDate(0, 1, 0))
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 20, 10.0)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     10,
		BatchNumber:  "B-PINNED",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "accept"}); err != nil {
		t.Fatalf("confirm order: %v", err)
	}

	// 指定批号不存在时不得用其他批次替代
	_, err = env.svc.Order.Ship(ctx, env.supplierActor(), order.ID, ShipOrderRequest{})
	if err == nil {
		t.Fatal("expected ship to fail for missing pinned batch")
	}
	if !strings.Contains(err.Error(), "B-PINNED") {
		t.Errorf("expected error naming pinned batch, got %v", err)
	}
}

func TestReceiveMergesWithWeightedAverage(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B1", 200, time.Now().AddDate(1, 0, 0))
	// 买方已有同批次 100 件 @10
	existing := testutil.SeedBatch(t, env.db, env.buyer.ID, env.drug.ID, "B1", 100, time.Now().AddDate(1, 0, 0))
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 50, 16.0)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     50,
		BatchNumber:  "B1",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "accept"}); err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if _, err := env.svc.Order.Ship(ctx, env.supplierActor(), order.ID, ShipOrderRequest{TrackingNumber: "SF-REC-1"}); err != nil {
		t.Fatalf("ship order: %v", err)
	}
	// 配送段推进到已送达
	env.db.Model(&entity.Order{}).Where("id = ?", order.ID).
		Update("status", entity.OrderStatusDelivered)

	received, err := env.svc.Order.Receive(ctx, env.buyerActor(), order.ID, ReceiveOrderRequest{})
	if err != nil {
		t.Fatalf("receive order: %v", err)
	}
	if received.Status != entity.OrderStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", received.Status)
	}
	if received.ReceivedAt == nil {
		t.Error("expected received_at stamped")
	}

	// (100*10 + 50*16) / 150 = 12.00
	var merged entity.InventoryItem
	env.db.First(&merged, "id = ?", existing.ID)
	if merged.Quantity != 150 {
		t.Errorf("expected merged quantity 150, got %d", merged.Quantity)
	}
	if merged.UnitPrice != 12.00 {
		t.Errorf("expected weighted average 12.00, got %v", merged.UnitPrice)
	}

	// IN流水对端为供应商
	var ins []entity.InventoryTransaction
	env.db.Where("transaction_type = ? AND inventory_item_id = ?", entity.TxTypeIn, existing.ID).Find(&ins)
	if len(ins) != 1 {
		t.Fatalf("expected 1 IN transaction, got %d", len(ins))
	}
	if ins[0].QuantityDelta != 50 {
		t.Errorf("expected IN delta 50, got %d", ins[0].QuantityDelta)
	}
	if ins[0].SourceTenantID == nil || *ins[0].SourceTenantID != env.supplier.ID {
		t.Error("expected IN counterparty to be supplier tenant")
	}
}

func TestReceiveSynthesizesBatchNumber(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B-SRC", 100, time.Now().AddDate(1, 0, 0))
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 40, 7.5)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     40,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "accept"}); err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if _, err := env.svc.Order.Ship(ctx, env.supplierActor(), order.ID, ShipOrderRequest{}); err != nil {
		t.Fatalf("ship order: %v", err)
	}
	env.db.Model(&entity.Order{}).Where("id = ?", order.ID).
		Update("status", entity.OrderStatusDelivered)

	if _, err := env.svc.Order.Receive(ctx, env.buyerActor(), order.ID, ReceiveOrderRequest{}); err != nil {
		t.Fatalf("receive order: %v", err)
	}

	var created entity.InventoryItem
	if err := env.db.First(&created, "tenant_id = ? AND drug_id = ?", env.buyer.ID, env.drug.ID).Error; err != nil {
		t.Fatalf("expected buyer batch created: %v", err)
	}
	wantPrefix := "AUTO-" + order.OrderNumber + "-"
	if !strings.HasPrefix(created.BatchNumber, wantPrefix) {
		t.Errorf("expected synthesized batch number with prefix %s, got %s", wantPrefix, created.BatchNumber)
	}
	if created.Quantity != 40 {
		t.Errorf("expected quantity 40, got %d", created.Quantity)
	}
	if created.UnitPrice != 7.5 {
		t.Errorf("expected unit price carried from order, got %v", created.UnitPrice)
	}
}

func TestStrictGuardsRejectSkippingStates(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 20, 10.0)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     5,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// PENDING 不能直接发货
	if _, err := env.svc.Order.Ship(ctx, env.supplierActor(), order.ID, ShipOrderRequest{}); err == nil {
		t.Fatal("expected ship from PENDING to fail")
	}
	// PENDING 不能直接收货
	if _, err := env.svc.Order.Receive(ctx, env.buyerActor(), order.ID, ReceiveOrderRequest{}); err == nil {
		t.Fatal("expected receive from PENDING to fail")
	}
	// 重复确认
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "accept"}); err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "accept"}); err == nil {
		t.Fatal("expected repeated confirm to fail")
	}
}

func TestAuthorizationBoundaries(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 20, 10.0)
	other := testutil.SeedTenant(t, env.db, "其他供应商", entity.TenantTypeSupplier)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     5,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// 非订单供应商不能确认
	otherActor := Actor{UserID: "u-other", Role: RoleSupplier, TenantID: other.ID}
	if _, err := env.svc.Order.Confirm(ctx, otherActor, order.ID, ConfirmOrderRequest{Action: "accept"}); err == nil {
		t.Fatal("expected confirm by unrelated supplier to fail")
	} else if _, ok := err.(*AuthorizationError); !ok {
		t.Fatalf("expected AuthorizationError, got %T", err)
	}

	// 供应商不能替买方取消
	if _, err := env.svc.Order.Cancel(ctx, env.supplierActor(), order.ID, CancelOrderRequest{}); err == nil {
		t.Fatal("expected cancel by supplier tenant to fail")
	}
}

func TestExpireOverdueCompensates(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 20, 10.0)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     8,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	// 回拨创建时间到确认时限之外
	env.db.Model(&entity.Order{}).Where("id = ?", order.ID).
		Update("created_at", time.Now().UTC().Add(-25*time.Hour))

	admin := Actor{UserID: "u-admin", Role: RoleAdmin}
	count, err := env.svc.Order.ExpireOverdue(ctx, admin)
	if err != nil {
		t.Fatalf("expire overdue: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expired order, got %d", count)
	}

	var after entity.Order
	env.db.First(&after, "id = ?", order.ID)
	if after.Status != entity.OrderStatusExpiredCancelled {
		t.Errorf("expected EXPIRED_CANCELLED, got %s", after.Status)
	}
	if after.CancelReason == "" {
		t.Error("expected cancel reason recorded")
	}
	if env.reloadSupply(t, supply.ID).AvailableQuantity != 20 {
		t.Error("expected supply quantity restored after expiry")
	}

	// 非管理员不可触发
	if _, err := env.svc.Order.ExpireOverdue(ctx, env.buyerActor()); err == nil {
		t.Error("expected non-admin expire to fail")
	}
}

func TestCarrierPatchIdempotentAndSelfAssigns(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()
	testutil.SeedBatch(t, env.db, env.supplier.ID, env.drug.ID, "B-LOG", 50, time.Now().AddDate(1, 0, 0))
	supply := testutil.SeedSupply(t, env.db, env.supplier.ID, env.drug.ID, 20, 10.0)
	logistics := testutil.SeedTenant(t, env.db, "测试物流", entity.TenantTypeLogistics)

	order, err := env.svc.Order.Create(ctx, env.buyerActor(), CreateOrderRequest{
		SupplyInfoID: supply.ID,
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := env.svc.Order.Confirm(ctx, env.supplierActor(), order.ID, ConfirmOrderRequest{Action: "accept"}); err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if _, err := env.svc.Order.Ship(ctx, env.supplierActor(), order.ID, ShipOrderRequest{TrackingNumber: "SF-LOG-1"}); err != nil {
		t.Fatalf("ship order: %v", err)
	}

	carrier := Actor{UserID: "u-carrier", Role: RoleLogistics, TenantID: logistics.ID}

	// 首次上报自动认领
	updated, noop, err := env.svc.Order.UpdateStatusCarrier(ctx, carrier, order.ID, entity.OrderStatusInTransit)
	if err != nil {
		t.Fatalf("carrier update: %v", err)
	}
	if noop {
		t.Fatal("expected real transition, got noop")
	}
	if updated.LogisticsTenantID == nil || *updated.LogisticsTenantID != logistics.ID {
		t.Error("expected logistics tenant self-assigned")
	}

	// 重复上报当前状态为成功空操作
	_, noop, err = env.svc.Order.UpdateStatusCarrier(ctx, carrier, order.ID, entity.OrderStatusInTransit)
	if err != nil {
		t.Fatalf("repeated carrier update: %v", err)
	}
	if !noop {
		t.Error("expected noop on repeated status")
	}

	// 其他物流公司不能插手已分配订单
	otherCarrier := Actor{UserID: "u-other-carrier", Role: RoleLogistics, TenantID: testutil.SeedTenant(t, env.db, "别家物流", entity.TenantTypeLogistics).ID}
	if _, _, err := env.svc.Order.UpdateStatusCarrier(ctx, otherCarrier, order.ID, entity.OrderStatusDelivered); err == nil {
		t.Error("expected update by unassigned carrier to fail")
	}
	// 重复上报当前状态同样拒绝，不得作为空操作放行
	if _, _, err := env.svc.Order.UpdateStatusCarrier(ctx, otherCarrier, order.ID, entity.OrderStatusInTransit); err == nil {
		t.Error("expected noop report by unassigned carrier to fail")
	} else if _, ok := err.(*AuthorizationError); !ok {
		t.Errorf("expected AuthorizationError, got %T", err)
	}

	// 推进到 COMPLETED 触发收货入库
	if _, _, err := env.svc.Order.UpdateStatusCarrier(ctx, carrier, order.ID, entity.OrderStatusDelivered); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if _, _, err := env.svc.Order.UpdateStatusCarrier(ctx, carrier, order.ID, entity.OrderStatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	var ins int64
	env.db.Model(&entity.InventoryTransaction{}).Where("transaction_type = ?", entity.TxTypeIn).Count(&ins)
	if ins != 1 {
		t.Errorf("expected 1 IN transaction after completion, got %d", ins)
	}
	var final entity.Order
	env.db.First(&final, "id = ?", order.ID)
	if final.DeliveredAt == nil || final.ReceivedAt == nil {
		t.Error("expected delivered_at and received_at stamped")
	}
}
