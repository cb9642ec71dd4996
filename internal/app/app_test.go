package app_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gamedepot-backend/internal/app"
	"github.com/angelmondragon/gamedepot-backend/pkg/auth/authtest"
	"github.com/angelmondragon/gamedepot-backend/pkg/config"
	"github.com/angelmondragon/gamedepot-backend/pkg/db"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
)

type server struct {
	t       *testing.T
	handler http.Handler
	token   string
	db      *db.Client
	now     time.Time
}

func newServer(t *testing.T) *server {
	t.Helper()
	now := time.Now().UTC()
	client := dbtest.Open(t)
	jwtCfg := authtest.Config()
	cfg := &config.Config{
		App:     config.AppConfig{Env: "test"},
		JWT:     jwtCfg,
		Reports: config.ReportsConfig{PageSize: 10},
	}
	params := app.Params{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "app-test", Output: io.Discard}),
		DB:       client,
		Registry: prometheus.NewRegistry(),
		Now:      func() time.Time { return now },
	}
	svcs, err := app.NewServices(params)
	require.NoError(t, err)
	handler, err := app.Handler(params, svcs)
	require.NoError(t, err)

	return &server{
		t:       t,
		handler: handler,
		token:   authtest.MintToken(t, jwtCfg, "op-1", enums.OperatorRoleManager),
		db:      client,
		now:     now,
	}
}

func (s *server) call(method, path, body string) (int, map[string]any) {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)

	var decoded map[string]any
	require.NoError(s.t, json.Unmarshal(resp.Body.Bytes(), &decoded), resp.Body.String())
	return resp.Code, decoded
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	out, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data in %v", body)
	return out
}

func idsJSON(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestSettlementLifecycle(t *testing.T) {
	s := newServer(t)
	conn := s.db.DB()
	dbtest.MustCreateSession(t, conn, s.now.Add(-24*time.Hour), s.now.Add(24*time.Hour), dbtest.SessionRates{
		Commission:          "10",
		CommissionIsPercent: true,
		DepositFee:          "5",
		DepositFeeIsPercent: true,
	})
	vendor := dbtest.MustCreateVendor(t, conn, "alice")
	catan := dbtest.MustCreateLicense(t, conn, "Kosmos", "Catan")
	azul := dbtest.MustCreateLicense(t, conn, "Plan B", "Azul")

	status, body := s.call(http.MethodPost, "/deposer", fmt.Sprintf(
		`{"licence":[%d,%d],"quantite":[5,3],"prix":[50,70],"id_vendeur":%d}`, catan.ID, azul.ID, vendor.ID))
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "23.00", data(t, body)["fraisDepot"])

	var stock []models.Item
	require.NoError(t, conn.Order("id").Find(&stock).Error)
	require.Len(t, stock, 8)
	ids := dbtest.ItemIDs(stock)

	status, body = s.call(http.MethodPost, "/acheter", fmt.Sprintf(`{"jeux_a_acheter":%s}`, idsJSON(ids)))
	require.Equal(t, http.StatusBadRequest, status, "depositable items cannot be sold")
	assert.Equal(t, "BATCH_REJECTED", body["error"].(map[string]any)["code"])

	status, body = s.call(http.MethodPut, "/updateStatus", fmt.Sprintf(`{"jeux_ids":%s,"nouveau_statut":"listed"}`, idsJSON(ids)))
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.call(http.MethodPost, "/acheter", fmt.Sprintf(`{"jeux_a_acheter":%s}`, idsJSON(ids)))
	require.Equal(t, http.StatusCreated, status, body)
	achats, ok := data(t, body)["achats"].([]any)
	require.True(t, ok)
	assert.Len(t, achats, 8)

	status, body = s.call(http.MethodGet, "/gestion/bilan", "")
	require.Equal(t, http.StatusOK, status, body)
	bilan := data(t, body)["bilan"].(map[string]any)
	assert.Equal(t, "460.00", bilan["total_generé_par_vendeurs"])
	assert.Equal(t, "414.00", bilan["total_dû_aux_vendeurs"])
	assert.Equal(t, "46.00", bilan["argent_généré_pour_admin"])
	assert.Equal(t, "0.00", bilan["total_versé_aux_vendeurs"])

	status, body = s.call(http.MethodPost, fmt.Sprintf("/gestion/bilan/%d/payer", vendor.ID), "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "414.00", data(t, body)["montant_paye"])

	status, body = s.call(http.MethodGet, fmt.Sprintf("/gestion/bilan/%d", vendor.ID), "")
	require.Equal(t, http.StatusOK, status, body)
	vendorBilan := data(t, body)["bilan"].(map[string]any)
	assert.Equal(t, "0.00", vendorBilan["total_dû_au_vendeur"])
	assert.Equal(t, "414.00", vendorBilan["total_versé_au_vendeur"])
	assert.Equal(t, "46.00", vendorBilan["argent_généré_pour_admin"])

	status, body = s.call(http.MethodGet, "/gestion/games/1", "")
	require.Equal(t, http.StatusOK, status, body)
	rows, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]any)
	assert.Equal(t, "Kosmos", first["editeur_nom"])
	assert.Equal(t, "Catan", first["licence_nom"])
	assert.EqualValues(t, 5, first["quantite_vendue"])

	status, body = s.call(http.MethodPost, "/recuperer", fmt.Sprintf(`{"jeux_a_recup":[%d]}`, ids[0]))
	assert.Equal(t, http.StatusBadRequest, status, "sold items cannot be retrieved: %v", body)

	assert.EqualValues(t, 8, dbtest.CountRows(t, conn, &models.Purchase{}))
	assert.GreaterOrEqual(t, dbtest.CountRows(t, conn, &models.OutboxEvent{}), int64(4))
}

func TestPromoCodesRedeemAsStored(t *testing.T) {
	s := newServer(t)
	conn := s.db.DB()
	dbtest.MustCreateSession(t, conn, s.now.Add(-24*time.Hour), s.now.Add(24*time.Hour), dbtest.SessionRates{
		Commission:          "10",
		CommissionIsPercent: true,
		DepositFee:          "5",
		DepositFeeIsPercent: true,
	})
	dbtest.MustCreatePromo(t, conn, "NOËL", 10)
	vendor := dbtest.MustCreateVendor(t, conn, "alice")
	catan := dbtest.MustCreateLicense(t, conn, "Kosmos", "Catan")

	status, body := s.call(http.MethodPost, "/deposer", fmt.Sprintf(
		`{"licence":[%d],"quantite":[2],"prix":[50],"code_promo":"NOËL","id_vendeur":%d}`, catan.ID, vendor.ID))
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "4.50", data(t, body)["fraisDepot"])

	status, body = s.call(http.MethodPost, "/deposer", fmt.Sprintf(
		`{"licence":[%d],"quantite":[1],"prix":[50],"code_promo":"SOLDES 10","id_vendeur":%d}`, catan.ID, vendor.ID))
	require.Equal(t, http.StatusNotFound, status, body)
	assert.Equal(t, "Code promo invalide.", body["error"].(map[string]any)["message"])
	assert.EqualValues(t, 1, dbtest.CountRows(t, conn, &models.Deposit{}))

	var stock []models.Item
	require.NoError(t, conn.Order("id").Find(&stock).Error)
	require.Len(t, stock, 2)
	ids := dbtest.ItemIDs(stock)
	status, body = s.call(http.MethodPut, "/updateStatus", fmt.Sprintf(`{"jeux_ids":%s,"nouveau_statut":"listed"}`, idsJSON(ids)))
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.call(http.MethodPost, "/acheter", fmt.Sprintf(`{"jeux_a_acheter":[%d],"code_promo":"SOLDES 10"}`, ids[0]))
	require.Equal(t, http.StatusBadRequest, status, body)
	assert.Equal(t, "Code promo invalide.", body["error"].(map[string]any)["message"])

	status, body = s.call(http.MethodPost, "/acheter", fmt.Sprintf(`{"jeux_a_acheter":[%d],"code_promo":" NOËL "}`, ids[0]))
	require.Equal(t, http.StatusCreated, status, body)
	achats, ok := data(t, body)["achats"].([]any)
	require.True(t, ok)
	require.Len(t, achats, 1)
	assert.Equal(t, enums.ItemStatusSold, dbtest.ItemStatuses(t, conn, ids)[ids[0]])
}

func TestReportsWithoutSession(t *testing.T) {
	s := newServer(t)

	status, _ := s.call(http.MethodGet, "/gestion/bilan", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.call(http.MethodGet, "/gestion/games/1", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.call(http.MethodPost, "/deposer", `{"licence":[1],"quantite":[1],"prix":[10],"id_vendeur":1}`)
	assert.Equal(t, http.StatusNotFound, status)
}
