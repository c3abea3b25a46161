// internal/domain/analytics/service.go
package analytics

import (
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"gorm.io/gorm"
)

// Service handles admin dashboard analytics
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// revenueStatuses are the order statuses that count toward revenue.
// Cancelled and failed orders never do; pending ones have not paid yet.
var revenueStatuses = []order.Status{
	order.StatusConfirmed,
	order.StatusPaid,
	order.StatusShipping,
	order.StatusCompleted,
}

// DashboardStats represents overall dashboard statistics
type DashboardStats struct {
	TotalRevenue int64 `json:"total_revenue"`
	RevenueToday int64 `json:"revenue_today"`

	TotalOrders    int64        `json:"total_orders"`
	OrdersToday    int64        `json:"orders_today"`
	OrdersByStatus []StatusData `json:"orders_by_status"`

	TotalUsers    int64 `json:"total_users"`
	NewUsersToday int64 `json:"new_users_today"`

	TotalProducts      int64 `json:"total_products"`
	ActiveProducts     int64 `json:"active_products"`
	OutOfStockVariants int64 `json:"out_of_stock_variants"`

	AvgOrderValue int64 `json:"avg_order_value"`
}

// StatusData counts orders in one status
type StatusData struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Value  int64  `json:"value"`
}

// TimeSeriesData is one point of a revenue series
type TimeSeriesData struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
	Count int64  `json:"count"`
}

// ProductSalesData aggregates sales for one product
type ProductSalesData struct {
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	TotalSold   int64  `json:"total_sold"`
	Revenue     int64  `json:"revenue"`
}

// GetDashboardStats computes the admin dashboard summary
func (s *Service) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	today := time.Now().UTC().Truncate(24 * time.Hour)

	revenueQuery := s.db.Model(&order.Order{}).Where("status IN ?", revenueStatuses)
	if err := revenueQuery.Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	err := s.db.Model(&order.Order{}).
		Where("status IN ? AND created_at >= ?", revenueStatuses, today).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.RevenueToday).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	if err := s.db.Model(&order.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := s.db.Model(&order.Order{}).Where("created_at >= ?", today).Count(&stats.OrdersToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	err = s.db.Model(&order.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS value").
		Group("status").Scan(&stats.OrdersByStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group orders by status: %w", err)
	}

	if err := s.db.Table("users").Where("deleted_at IS NULL").Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	err = s.db.Table("users").Where("deleted_at IS NULL AND created_at >= ?", today).Count(&stats.NewUsersToday).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if err := s.db.Table("products").Where("deleted_at IS NULL").Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	err = s.db.Table("products").Where("deleted_at IS NULL AND is_active = ?", true).Count(&stats.ActiveProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	err = s.db.Table("product_variants").Where("deleted_at IS NULL AND stock = 0").Count(&stats.OutOfStockVariants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count variants: %w", err)
	}

	var revenueOrders int64
	err = s.db.Model(&order.Order{}).Where("status IN ?", revenueStatuses).Count(&revenueOrders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if revenueOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / revenueOrders
	}

	return stats, nil
}

// GetRevenueSeries returns daily revenue for the last n days
func (s *Service) GetRevenueSeries(days int) ([]TimeSeriesData, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))

	var rows []struct {
		Day   time.Time
		Value int64
		Count int64
	}
	err := s.db.Model(&order.Order{}).
		Select("created_at AS day, total_amount AS value").
		Where("status IN ? AND created_at >= ?", revenueStatuses, since).
		Order("created_at ASC").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue series: %w", err)
	}

	// Bucket in Go rather than SQL so the query stays portable across
	// postgres and the sqlite test database
	buckets := make(map[string]*TimeSeriesData, days)
	series := make([]TimeSeriesData, 0, days)
	for i := 0; i < days; i++ {
		date := since.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, TimeSeriesData{Date: date})
		buckets[date] = &series[len(series)-1]
	}
	for _, row := range rows {
		if point, ok := buckets[row.Day.UTC().Format("2006-01-02")]; ok {
			point.Value += row.Value
			point.Count++
		}
	}
	return series, nil
}

// GetTopProducts returns the best sellers by revenue
func (s *Service) GetTopProducts(limit int) ([]ProductSalesData, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	var results []ProductSalesData
	err := s.db.Table("order_items").
		Select("order_items.product_name, order_items.sku, SUM(order_items.quantity) AS total_sold, SUM(order_items.subtotal) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status IN ?", revenueStatuses).
		Group("order_items.product_name, order_items.sku").
		Order("revenue DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}
	return results, nil
}
