package repository

import "gorm.io/gorm"

// Repositories 仓储集合
type Repositories struct {
	Order       *OrderRepository
	Inventory   *InventoryRepository
	Supply      *SupplyRepository
	Circulation *CirculationRepository
	Tenant      *TenantRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order:       NewOrderRepository(db),
		Inventory:   NewInventoryRepository(db),
		Supply:      NewSupplyRepository(db),
		Circulation: NewCirculationRepository(db),
		Tenant:      NewTenantRepository(db),
	}
}
