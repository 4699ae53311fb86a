package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/coincap"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/repository"
)

// WalletService handles wallet creation, holding additions and valuation.
type WalletService struct {
	db          *sql.DB
	userRepo    *repository.UserRepository
	walletRepo  *repository.WalletRepository
	assetRepo   *repository.AssetRepository
	holdingRepo *repository.HoldingRepository
	prices      coincap.Client
	locks       *keyedMutex
	log         zerolog.Logger
	now         func() time.Time
}

// NewWalletService creates a new WalletService with the provided repository dependencies.
func NewWalletService(
	db *sql.DB,
	userRepo *repository.UserRepository,
	walletRepo *repository.WalletRepository,
	assetRepo *repository.AssetRepository,
	holdingRepo *repository.HoldingRepository,
	prices coincap.Client,
	log zerolog.Logger,
) *WalletService {
	return &WalletService{
		db:          db,
		userRepo:    userRepo,
		walletRepo:  walletRepo,
		assetRepo:   assetRepo,
		holdingRepo: holdingRepo,
		prices:      prices,
		locks:       newKeyedMutex(),
		log:         log.With().Str("component", "wallet_service").Logger(),
		now:         time.Now,
	}
}

// AddAssetInput describes one purchase to add to a wallet.
type AddAssetInput struct {
	Email         string
	Symbol        string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
}

// NormalizeEmail trims and lower-cases an email so it can be used as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// CreateWallet registers a user with the given email and creates their wallet.
// Returns ErrWalletExists if the email is already registered.
func (s *WalletService) CreateWallet(ctx context.Context, email string) (model.WalletOwner, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return model.WalletOwner{}, apperrors.ErrInvalidEmail
	}

	now := s.now().UTC()
	user := model.User{ID: uuid.New().String(), Email: email, CreatedAt: now}
	wallet := model.Wallet{ID: uuid.New().String(), UserID: user.ID, CreatedAt: now}

	err := repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.userRepo.WithTx(tx).Insert(ctx, user); err != nil {
			return err
		}
		return s.walletRepo.WithTx(tx).Insert(ctx, wallet)
	})
	if errors.Is(err, apperrors.ErrWalletExists) {
		s.log.Warn().Str("email", email).Msg("Attempt to create wallet for existing email")
		return model.WalletOwner{}, err
	}
	if err != nil {
		return model.WalletOwner{}, fmt.Errorf("failed to create wallet: %w", err)
	}

	s.log.Info().Str("email", email).Str("wallet_id", wallet.ID).Msg("Created wallet")

	return model.WalletOwner{
		ID:        user.ID,
		Email:     user.Email,
		WalletID:  wallet.ID,
		CreatedAt: user.CreatedAt,
	}, nil
}

// AddAsset adds a purchase to the wallet, creating the holding or merging it
// into the existing one at the weighted-average purchase price.
//
// The price source must know a current price for the symbol; otherwise the
// asset is not added and ErrAssetPriceNotFound is returned. An asset seen for
// the first time is created with that price and its canonical name. Additions
// for the same wallet and asset are serialized.
func (s *WalletService) AddAsset(ctx context.Context, in AddAssetInput) (model.WalletAssetInfo, error) {
	symbol := NormalizeSymbol(in.Symbol)
	if symbol == "" {
		return model.WalletAssetInfo{}, apperrors.ErrInvalidSymbol
	}

	quantity, price, err := normalizePurchase(in.Quantity, in.PurchasePrice)
	if err != nil {
		s.log.Warn().Err(err).Str("email", in.Email).Str("symbol", symbol).Msg("Rejected asset addition")
		return model.WalletAssetInfo{}, err
	}

	wallet, err := s.findWallet(ctx, in.Email)
	if err != nil {
		return model.WalletAssetInfo{}, err
	}

	// Upstream calls happen before the transaction so the single database
	// connection is not held while waiting on the network.
	current, err := s.prices.CurrentPrice(ctx, symbol)
	if err != nil || !current.Valid {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Price not found for symbol")
		return model.WalletAssetInfo{}, apperrors.ErrAssetPriceNotFound
	}
	currentPrice := model.Normalize(current.Decimal)

	name, err := s.resolveName(ctx, symbol)
	if err != nil {
		return model.WalletAssetInfo{}, err
	}

	unlock := s.locks.Lock(wallet.ID + "|" + symbol)
	defer unlock()

	var result model.WalletAssetInfo
	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		now := s.now().UTC()
		assetRepo := s.assetRepo.WithTx(tx)
		holdingRepo := s.holdingRepo.WithTx(tx)

		asset, err := assetRepo.GetOrCreate(ctx, model.Asset{
			ID:             uuid.New().String(),
			Symbol:         symbol,
			Name:           name,
			LastPrice:      decimal.NewNullDecimal(currentPrice),
			PriceUpdatedAt: sql.NullTime{Time: now, Valid: true},
		})
		if err != nil {
			return err
		}

		if !asset.LastPrice.Valid {
			if _, err := assetRepo.SetPriceIfMissing(ctx, asset.ID, currentPrice, now); err != nil {
				return err
			}
			asset.LastPrice = decimal.NewNullDecimal(currentPrice)
		}

		holding, err := holdingRepo.GetByWalletAndAsset(ctx, wallet.ID, asset.ID)
		switch {
		case errors.Is(err, apperrors.ErrHoldingNotFound):
			holding = model.Holding{
				ID:            uuid.New().String(),
				WalletID:      wallet.ID,
				AssetID:       asset.ID,
				Quantity:      quantity,
				PurchasePrice: price,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := holdingRepo.Insert(ctx, holding); err != nil {
				return err
			}
			s.log.Info().Str("symbol", symbol).Str("wallet_id", wallet.ID).Msg("Added new asset to wallet")
		case err != nil:
			return err
		default:
			holding.Quantity, holding.PurchasePrice = MergeHolding(holding.Quantity, holding.PurchasePrice, quantity, price)
			holding.UpdatedAt = now
			if err := holdingRepo.Update(ctx, holding); err != nil {
				return err
			}
			s.log.Info().Str("symbol", symbol).Str("wallet_id", wallet.ID).Msg("Updated asset in wallet")
		}

		result = ValuePortfolio([]model.HoldingDetail{{Holding: holding, Asset: asset}}, CachedPrice).Assets[0]
		return nil
	})
	if err != nil {
		return model.WalletAssetInfo{}, fmt.Errorf("failed to add asset: %w", err)
	}

	return result, nil
}

// GetWalletInfo values every holding in the user's wallet at its cached price.
func (s *WalletService) GetWalletInfo(ctx context.Context, email string) (model.WalletInfo, error) {
	holdings, err := s.GetHoldings(ctx, email)
	if err != nil {
		return model.WalletInfo{}, err
	}
	return ValuePortfolio(holdings, CachedPrice), nil
}

// GetHoldings returns the user's holdings joined with their assets, in the
// order they were first added.
func (s *WalletService) GetHoldings(ctx context.Context, email string) ([]model.HoldingDetail, error) {
	wallet, err := s.findWallet(ctx, email)
	if err != nil {
		return nil, err
	}

	holdings, err := s.holdingRepo.ListDetailsByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return holdings, nil
}

// findWallet resolves the wallet of the user with the given email.
func (s *WalletService) findWallet(ctx context.Context, email string) (model.Wallet, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return model.Wallet{}, err
	}
	return s.walletRepo.GetByUserID(ctx, user.ID)
}

// resolveName returns the canonical name to store for a new asset. Known
// assets keep their stored name, so the price source is only asked once.
// If it does not know the symbol the symbol itself is used.
func (s *WalletService) resolveName(ctx context.Context, symbol string) (string, error) {
	asset, err := s.assetRepo.GetBySymbol(ctx, symbol)
	if err == nil {
		return asset.Name, nil
	}
	if !errors.Is(err, apperrors.ErrAssetNotFound) {
		return "", fmt.Errorf("failed to look up asset: %w", err)
	}

	name, ok, err := s.prices.CanonicalName(ctx, symbol)
	if err != nil || !ok {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Canonical name not found, using symbol")
		return symbol, nil
	}
	return name, nil
}
