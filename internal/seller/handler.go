package seller

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/auth"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/seller/entity"
)

// Handler exposes the global seller endpoints. Every route expects
// auth.RequireSession in front of it.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// SellerRequest is the create and update payload.
type SellerRequest struct {
	MLUserID    string  `json:"ml_user_id" validate:"required,max=64"`
	AccessToken string  `json:"access_token" validate:"required,max=4096"`
	Name        *string `json:"name" validate:"omitempty,max=200"`
}

// pathID parses {id}. Unparseable ids cannot belong to anyone.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrNotFoundOrForbidden
	}
	return id, nil
}

func views(in []entity.GlobalSeller) []entity.SellerView {
	out := make([]entity.SellerView, 0, len(in))
	for i := range in {
		out = append(out, in[i].View())
	}
	return out
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.AccountFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, r, common.ErrUnauthorized)
		return
	}
	list, err := h.svc.GetByUserID(r.Context(), u.ID)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	common.WriteData(w, http.StatusOK, views(list))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.AccountFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, r, common.ErrUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	g, err := h.svc.GetOwned(r.Context(), id, u.ID)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	common.WriteData(w, http.StatusOK, g.View())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.AccountFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, r, common.ErrUnauthorized)
		return
	}
	var req SellerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	g, err := h.svc.Create(r.Context(), u.ID, req.MLUserID, req.AccessToken, req.Name)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	common.WriteData(w, http.StatusCreated, g.View())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.AccountFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, r, common.ErrUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	var req SellerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	g, err := h.svc.Update(r.Context(), id, u.ID, req.MLUserID, req.AccessToken, req.Name)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	common.WriteData(w, http.StatusOK, g.View())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.AccountFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, r, common.ErrUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id, u.ID); err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	common.WriteData(w, http.StatusOK, map[string]string{"status": "deleted"})
}
