package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tonbuybot/internal/domain"
)

// DestinationRow is the persisted form of a chat's tracking configuration.
// MinBuy stays a raw string in the database for backward compatibility with
// legacy rows ("none", "false", garbage); normalization to an optional
// decimal happens exactly once, on read.
type DestinationRow struct {
	ChatID       int64  `gorm:"primaryKey"`
	TokenAddress string `gorm:"primaryKey;index"`
	TokenSymbol  string
	MinBuy       string
	PhotoRef     string
	AnimationRef string
	TrendingURL  string
	BookTrendURL string
	DtradeRef    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TickerRow holds the last known USD price per token. It is the fallback
// price source when the market-data provider has nothing.
type TickerRow struct {
	TokenAddress string `gorm:"primaryKey"`
	PriceUSD     string
	UpdatedAt    time.Time
}

// WatchStateRow holds per-token watcher progress.
type WatchStateRow struct {
	TokenAddress string `gorm:"primaryKey"`
	PoolAddress  string
	Dex          string
	LastTradeID  string
	Holders      int64 // 0 = unknown
	UpdatedAt    time.Time
}

// Storage is the SQLite-backed configuration and state store.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the database at path and migrates the
// schema. An empty path places the file under the user config directory.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
		path = filepath.Join(configDir, "tonbuybot", "buybot.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&DestinationRow{}, &TickerRow{}, &WatchStateRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

func toDestination(row DestinationRow) domain.Destination {
	return domain.Destination{
		ChatID:       row.ChatID,
		TokenAddress: row.TokenAddress,
		TokenSymbol:  row.TokenSymbol,
		MinBuy:       domain.ParseThreshold(row.MinBuy),
		PhotoRef:     row.PhotoRef,
		AnimationRef: row.AnimationRef,
		TrendingURL:  row.TrendingURL,
		BookTrendURL: row.BookTrendURL,
		DtradeRef:    row.DtradeRef,
	}
}

// ======================================================================================
// Destination Operations
// ======================================================================================

// SaveDestination creates or updates a chat's tracking configuration.
func (s *Storage) SaveDestination(row *DestinationRow) error {
	return s.db.Save(row).Error
}

// DeleteDestination removes a chat's tracking configuration.
func (s *Storage) DeleteDestination(chatID int64, tokenAddress string) error {
	return s.db.Where("chat_id = ? AND token_address = ?", chatID, tokenAddress).
		Delete(&DestinationRow{}).Error
}

// ListDestinationsTracking returns every destination tracking a token,
// with thresholds already normalized.
func (s *Storage) ListDestinationsTracking(tokenAddress string) ([]domain.Destination, error) {
	var rows []DestinationRow
	if err := s.db.Where("token_address = ?", tokenAddress).Find(&rows).Error; err != nil {
		return nil, err
	}

	dests := make([]domain.Destination, 0, len(rows))
	for _, row := range rows {
		dests = append(dests, toDestination(row))
	}
	return dests, nil
}

// StillExists reports whether a destination is still present in the store.
func (s *Storage) StillExists(chatID int64, tokenAddress string) (bool, error) {
	var count int64
	err := s.db.Model(&DestinationRow{}).
		Where("chat_id = ? AND token_address = ?", chatID, tokenAddress).
		Count(&count).Error
	return count > 0, err
}

// TrackedTokens returns the distinct token addresses any chat tracks.
func (s *Storage) TrackedTokens() ([]string, error) {
	var tokens []string
	err := s.db.Model(&DestinationRow{}).
		Distinct("token_address").
		Pluck("token_address", &tokens).Error
	return tokens, err
}

// ======================================================================================
// Ticker Operations
// ======================================================================================

// LastPrice returns the last known USD price for a token, or nil when no
// usable price was ever recorded.
func (s *Storage) LastPrice(tokenAddress string) (*decimal.Decimal, error) {
	var row TickerRow
	err := s.db.First(&row, "token_address = ?", tokenAddress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // not found is not an error
	}
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(row.PriceUSD)
	if err != nil || !price.IsPositive() {
		return nil, nil
	}
	return &price, nil
}

// SetLastPrice records the most recent USD price for a token.
func (s *Storage) SetLastPrice(tokenAddress string, price decimal.Decimal) error {
	row := TickerRow{
		TokenAddress: tokenAddress,
		PriceUSD:     price.String(),
		UpdatedAt:    time.Now(),
	}
	return s.db.Save(&row).Error
}

// ======================================================================================
// Watch State Operations
// ======================================================================================

// WatchState returns the persisted watcher progress for a token. A zero
// row means the token has not been polled yet.
func (s *Storage) WatchState(tokenAddress string) (WatchStateRow, error) {
	var row WatchStateRow
	err := s.db.First(&row, "token_address = ?", tokenAddress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return WatchStateRow{TokenAddress: tokenAddress}, nil
	}
	return row, err
}

// SetWatchState persists watcher progress for a token.
func (s *Storage) SetWatchState(row WatchStateRow) error {
	row.UpdatedAt = time.Now()
	return s.db.Save(&row).Error
}
