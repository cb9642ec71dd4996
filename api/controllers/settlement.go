package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamedepot-backend/api/middleware"
	"github.com/angelmondragon/gamedepot-backend/api/responses"
	"github.com/angelmondragon/gamedepot-backend/api/validators"
	"github.com/angelmondragon/gamedepot-backend/internal/deposits"
	"github.com/angelmondragon/gamedepot-backend/internal/items"
	"github.com/angelmondragon/gamedepot-backend/internal/purchases"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
)

const (
	MsgDepositRecorded  = "Dépôt enregistré avec succès."
	MsgStatusUpdated    = "Statut des jeux mis à jour avec succès."
	MsgItemsRetrieved   = "Jeux récupérés avec succès."
	MsgPurchaseRecorded = "Achat effectué avec succès."
)

type depositRequest struct {
	Licenses   []uint            `json:"licence" validate:"required,min=1,dive,gt=0"`
	Quantities []int             `json:"quantite" validate:"required,min=1,dive,gt=0,lte=500"`
	Prices     []decimal.Decimal `json:"prix" validate:"required,min=1,dive,gte=0"`
	PromoCode  string            `json:"code_promo" validate:"max=64"`
	VendorID   uint              `json:"id_vendeur" validate:"required,gt=0"`
}

func (r depositRequest) toInput() (deposits.DepositInput, error) {
	if err := validators.SameLength(map[string]int{
		"licence":  len(r.Licenses),
		"quantite": len(r.Quantities),
		"prix":     len(r.Prices),
	}); err != nil {
		return deposits.DepositInput{}, err
	}
	promoCode, err := validators.NormalizePromoCode(r.PromoCode)
	if err != nil {
		return deposits.DepositInput{}, err
	}
	lines := make([]deposits.Line, len(r.Licenses))
	for i := range r.Licenses {
		lines[i] = deposits.Line{
			LicenseID: r.Licenses[i],
			Quantity:  r.Quantities[i],
			Price:     r.Prices[i],
		}
	}
	return deposits.DepositInput{
		VendorID:  r.VendorID,
		Lines:     lines,
		PromoCode: promoCode,
	}, nil
}

// Deposit records a vendor drop-off and answers with the fee charged.
func Deposit(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposit service unavailable"))
			return
		}

		var payload depositRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Deposit(r.Context(), middleware.PrincipalFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"message":    MsgDepositRecorded,
			"fraisDepot": result.Fee,
		})
	}
}

type statusUpdateRequest struct {
	IDs    []uint `json:"jeux_ids" validate:"required,min=1,dive,gt=0"`
	Status string `json:"nouveau_statut" validate:"required"`
}

// UpdateStatus is the operator override that moves a batch of items.
func UpdateStatus(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		var payload statusUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseItemStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation(fmt.Sprintf("Statut invalide : %s", payload.Status)).
				WithDetails(map[string]any{"nouveau_statut": payload.Status}))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), middleware.PrincipalFromContext(r.Context()), payload.IDs, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"message":        MsgStatusUpdated,
			"jeux_ids":       updated,
			"nouveau_statut": target,
		})
	}
}

type retrieveRequest struct {
	IDs []uint `json:"jeux_a_recup" validate:"required,min=1,dive,gt=0"`
}

type itemResponse struct {
	ID        uint             `json:"id"`
	LicenseID uint             `json:"licence_id"`
	DepositID uint             `json:"depot_id"`
	Price     string           `json:"prix"`
	Status    enums.ItemStatus `json:"statut"`
}

func toItemResponses(rows []models.Item) []itemResponse {
	out := make([]itemResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, itemResponse{
			ID:        row.ID,
			LicenseID: row.LicenseID,
			DepositID: row.DepositID,
			Price:     row.Price.StringFixed(2),
			Status:    row.Status,
		})
	}
	return out
}

// Retrieve hands unsold items back to their vendor.
func Retrieve(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		var payload retrieveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retrieved, err := svc.Retrieve(r.Context(), middleware.PrincipalFromContext(r.Context()), payload.IDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"message":        MsgItemsRetrieved,
			"jeux_recuperes": toItemResponses(retrieved),
		})
	}
}

type purchaseRequest struct {
	IDs       []uint `json:"jeux_a_acheter" validate:"required,min=1,dive,gt=0"`
	PromoCode string `json:"code_promo" validate:"max=64"`
	BuyerID   *uint  `json:"acheteur" validate:"omitempty,gt=0"`
}

type purchaseResponse struct {
	ID           uint      `json:"id"`
	ItemID       uint      `json:"jeu_id"`
	BuyerID      *uint     `json:"acheteur_id"`
	SessionID    uint      `json:"session_id"`
	TransactedAt time.Time `json:"date_transaction"`
	Commission   string    `json:"commission"`
}

func toPurchaseResponses(rows []models.Purchase) []purchaseResponse {
	out := make([]purchaseResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, purchaseResponse{
			ID:           row.ID,
			ItemID:       row.ItemID,
			BuyerID:      row.BuyerID,
			SessionID:    row.SessionID,
			TransactedAt: row.TransactedAt,
			Commission:   row.Commission.StringFixed(2),
		})
	}
	return out
}

// Purchase settles a batch of listed items.
func Purchase(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		var payload purchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		promoCode, err := validators.NormalizePromoCode(payload.PromoCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Purchase(r.Context(), middleware.PrincipalFromContext(r.Context()), purchases.PurchaseInput{
			ItemIDs:   payload.IDs,
			PromoCode: promoCode,
			BuyerID:   payload.BuyerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"message": MsgPurchaseRecorded,
			"achats":  toPurchaseResponses(created),
		})
	}
}
