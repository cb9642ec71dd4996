package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/gamedepot-backend/api/middleware"
	"github.com/angelmondragon/gamedepot-backend/api/responses"
	"github.com/angelmondragon/gamedepot-backend/api/validators"
	"github.com/angelmondragon/gamedepot-backend/internal/ledger"
	"github.com/angelmondragon/gamedepot-backend/internal/reports"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
	"github.com/angelmondragon/gamedepot-backend/pkg/pagination"
)

const MsgVendorPaid = "Paiement du vendeur enregistré."

type sessionResponse struct {
	ID        uint      `json:"id"`
	StartDate time.Time `json:"date_debut"`
	EndDate   time.Time `json:"date_fin"`
}

func toSessionResponse(s models.Session) sessionResponse {
	return sessionResponse{ID: s.ID, StartDate: s.StartDate, EndDate: s.EndDate}
}

type vendorResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"nom"`
	Email string `json:"email,omitempty"`
}

type sessionTotalsResponse struct {
	Generated       string `json:"total_generé_par_vendeurs"`
	Owed            string `json:"total_dû_aux_vendeurs"`
	PlatformRevenue string `json:"argent_généré_pour_admin"`
	Paid            string `json:"total_versé_aux_vendeurs"`
}

type vendorTotalsResponse struct {
	Generated       string `json:"total_generé_par_vendeur"`
	Owed            string `json:"total_dû_au_vendeur"`
	PlatformRevenue string `json:"argent_généré_pour_admin"`
	Paid            string `json:"total_versé_au_vendeur"`
}

// SessionBilan reports the ledger totals of the current session.
func SessionBilan(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		report, err := svc.SessionBilan(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"session": toSessionResponse(report.Session),
			"bilan": sessionTotalsResponse{
				Generated:       report.Totals.Generated.StringFixed(2),
				Owed:            report.Totals.Owed.StringFixed(2),
				PlatformRevenue: report.Totals.PlatformRevenue.StringFixed(2),
				Paid:            report.Totals.Paid.StringFixed(2),
			},
		})
	}
}

func VendorBilan(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		vendorID, err := validators.ParsePathUint(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.VendorBilan(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"vendeur": vendorResponse{
				ID:    report.Vendor.ID,
				Name:  report.Vendor.Name,
				Email: report.Vendor.Email,
			},
			"session": toSessionResponse(report.Session),
			"bilan": vendorTotalsResponse{
				Generated:       report.Totals.Generated.StringFixed(2),
				Owed:            report.Totals.Owed.StringFixed(2),
				PlatformRevenue: report.Totals.PlatformRevenue.StringFixed(2),
				Paid:            report.Totals.Paid.StringFixed(2),
			},
		})
	}
}

// PayVendor records that the vendor's outstanding balance was handed over.
func PayVendor(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		vendorID, err := validators.ParsePathUint(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.MarkPaid(r.Context(), middleware.PrincipalFromContext(r.Context()), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"message":      MsgVendorPaid,
			"vendeur_id":   result.VendorID,
			"session_id":   result.SessionID,
			"montant_paye": result.AmountPaid.StringFixed(2),
		})
	}
}

func pageFromPath(r *http.Request) (int, error) {
	page, err := pagination.ParseNumber(chi.URLParam(r, "page"))
	if err != nil {
		return 0, pkgerrors.Validation(err.Error())
	}
	return page, nil
}

// SalesByLicense lists units sold per license for the current session.
func SalesByLicense(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		page, err := pageFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.SalesByLicense(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if rows == nil {
			rows = []reports.LicenseSales{}
		}
		responses.WriteSuccess(w, rows)
	}
}

// SalesByVendor lists units sold per vendor and license, optionally for one vendor.
func SalesByVendor(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		page, err := pageFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseQueryUint(r, "vendeur_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.SalesByVendor(r.Context(), page, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if rows == nil {
			rows = []reports.VendorSales{}
		}
		responses.WriteSuccess(w, rows)
	}
}
