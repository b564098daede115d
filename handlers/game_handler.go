package handlers

import (
	"errors"
	"net/http"
	"time"

	"tipprunde/kicktipp"
	"tipprunde/services"
)

type GameHandler struct {
	gameService       services.GameService
	evaluationService services.EvaluationService
	syncService       services.SyncService
}

func NewGameHandler(
	gameService services.GameService,
	evaluationService services.EvaluationService,
	syncService services.SyncService,
) *GameHandler {
	return &GameHandler{
		gameService:       gameService,
		evaluationService: evaluationService,
		syncService:       syncService,
	}
}

type gamePayload struct {
	Name  string `json:"name"`
	Stake string `json:"stake"`
	URL   string `json:"url"`
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload gamePayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), services.CreateGameInput{
		Name:  payload.Name,
		Stake: payload.Stake,
		URL:   payload.URL,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameService.ListGames(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGameByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload gamePayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.UpdateGame(r.Context(), id, services.UpdateGameInput{
		Name:  payload.Name,
		Stake: payload.Stake,
		URL:   payload.URL,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.gameService.DeleteGame(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGameByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": game.Config}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type configPayload struct {
	VictorySharePercent   string `json:"victory_share_percent"`
	PlacementSharePercent string `json:"placement_share_percent"`
	NumMatchdays          int    `json:"num_matchdays"`
}

func (h *GameHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload configPayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cfg, err := h.gameService.SaveConfig(r.Context(), id, services.SaveConfigInput{
		VictorySharePercent:   payload.VictorySharePercent,
		PlacementSharePercent: payload.PlacementSharePercent,
		NumMatchdays:          payload.NumMatchdays,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": cfg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type placementPayload struct {
	Rank    int    `json:"rank"`
	Percent string `json:"percent"`
}

func (h *GameHandler) AddPlacementRule(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload placementPayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rule, err := h.gameService.AddPlacementRule(r.Context(), id, services.AddPlacementRuleInput{
		Rank:    payload.Rank,
		Percent: payload.Percent,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"placement": rule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) RemovePlacementRule(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rank, err := getIDFromURL(r, "rank")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.gameService.RemovePlacementRule(r.Context(), id, rank); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.evaluationService.Evaluate(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"evaluation": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type syncPayload struct {
	BaseURL string `json:"base_url"`
	Date    string `json:"date"`
}

func (h *GameHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload syncPayload
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &payload); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	opts := services.SyncOptions{BaseURL: payload.BaseURL}
	if payload.Date != "" {
		asOf, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			badRequestResponse(w, r, errors.New("date must use the YYYY-MM-DD format"))
			return
		}
		opts.AsOfDate = asOf
	}

	summary, err := h.syncService.SyncGame(r.Context(), id, opts)
	if err != nil {
		if errors.Is(err, kicktipp.ErrFetchFailed) || errors.Is(err, kicktipp.ErrRankingTableMissing) {
			badGatewayResponse(w, r, err)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.syncService.SyncAllGames(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

const maxLogoSize = 5 << 20 // 5MB

func (h *GameHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, errors.New("logo file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	game, err := h.gameService.UploadLogo(r.Context(), id, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
