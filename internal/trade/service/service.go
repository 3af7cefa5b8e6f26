package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/huakang/medtrade/internal/config"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor 当前操作者（由认证中间件解析）
type Actor struct {
	UserID   string
	Role     string
	TenantID string
}

// 角色常量（与JWT claims一致）
const (
	RolePharmacy  = "pharmacy"
	RoleSupplier  = "supplier"
	RoleLogistics = "logistics"
	RoleRegulator = "regulator"
	RoleAdmin     = "admin"
)

// Services 服务集合
type Services struct {
	Order        *OrderService
	Inventory    *InventoryService
	Supply       *SupplyService
	Circulation  *CirculationService
	StateMachine *OrderStateMachine
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, logger *zap.Logger, cfg *config.Config) *Services {
	sm := NewOrderStateMachine()
	numbers := &orderNumberGenerator{rdb: rdb}
	supply := NewSupplyService(repos.Supply, repos.Inventory, db, logger)
	inventory := NewInventoryService(repos.Inventory, db, logger)
	order := NewOrderService(repos, db, sm, numbers, logger, cfg.Order)
	circulation := NewCirculationService(repos.Circulation, repos.Order, repos.Inventory, db, sm, logger)
	return &Services{
		Order:        order,
		Inventory:    inventory,
		Supply:       supply,
		Circulation:  circulation,
		StateMachine: sm,
	}
}

// orderNumberGenerator 业务订单号生成器：前缀 + 日期 + 3位当日序号。
// 序号走 Redis 自增，Redis 不可用时退化为随机数。
type orderNumberGenerator struct {
	rdb *redis.Client
}

// Next 生成订单号，前缀按买方租户类型：药店PH、供应商SP、物流LG
func (g *orderNumberGenerator) Next(ctx context.Context, buyerType string) string {
	prefix := "PH"
	switch buyerType {
	case entity.TenantTypeSupplier:
		prefix = "SP"
	case entity.TenantTypeLogistics:
		prefix = "LG"
	}
	today := time.Now().UTC().Format("20060102")

	seq := 0
	if g.rdb != nil {
		key := fmt.Sprintf("medtrade:order_seq:%s", today)
		n, err := g.rdb.Incr(ctx, key).Result()
		if err == nil {
			g.rdb.Expire(ctx, key, 48*time.Hour)
			seq = int(n % 1000)
		}
	}
	if seq == 0 {
		seq = rand.Intn(999) + 1
	}
	return fmt.Sprintf("%s%s%03d", prefix, today, seq)
}
