package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/roach88/harvest/internal/config"
	"github.com/roach88/harvest/internal/dispatch"
	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/ir"
	"github.com/roach88/harvest/internal/queryir"
	"github.com/roach88/harvest/internal/sim"
	"github.com/roach88/harvest/internal/store"
)

const defaultHistoryLimit = 50

// filterFields are the log fields accepted as /v1/history parameters,
// sorted so filters compile in a stable order.
var filterFields = func() []string {
	fields := make([]string, 0, len(queryir.Fields))
	for f := range queryir.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}()

// Log is the read side of the harvest log. *store.Store implements it.
type Log interface {
	Stats(ctx context.Context) (store.Stats, error)
	Find(ctx context.Context, q queryir.Query) ([]ir.Interaction, error)
	GetPositionState(ctx context.Context, world string, x, y, z int) (store.PositionState, error)
}

type Handler struct {
	Dispatcher *dispatch.Dispatcher

	// Log is optional; the log endpoints answer 404 without it.
	Log Log

	Logger *slog.Logger
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	v1 := s.Group("/v1")
	v1.POST("/interact", h.interact)
	v1.GET("/catalog", h.catalog)
	v1.GET("/stats", h.stats)
	v1.GET("/history", h.history)
	v1.GET("/positions", h.position)

	s.GET("/healthz", h.healthz)
}

// NewServer builds a hertz server with the routes registered.
func NewServer(addr string, h Handler) *server.Hertz {
	s := server.Default(server.WithHostPorts(addr))
	h.RegisterRoutes(s)
	return s
}

type stackBody struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type posBody struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type hitBody struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type interactRequest struct {
	World  string            `json:"world"`
	Client bool              `json:"client,omitempty"`
	Actor  string            `json:"actor"`
	Held   *stackBody        `json:"held,omitempty"`
	Hand   string            `json:"hand,omitempty"`
	Pos    posBody           `json:"pos"`
	Facing string            `json:"facing,omitempty"`
	Hit    hitBody           `json:"hit"`
	State  string            `json:"state"`
	Entity map[string]string `json:"entity,omitempty"`
	Drops  []stackBody       `json:"drops"`
}

type mutations struct {
	Spawned    []stackBody `json:"spawned"`
	Placed     string      `json:"placed,omitempty"`
	Swing      bool        `json:"swing"`
	Exhaustion float64     `json:"exhaustion"`
}

type interactResponse struct {
	Result    string    `json:"result"`
	Outcome   string    `json:"outcome,omitempty"`
	Filtered  bool      `json:"filtered,omitempty"`
	Rule      string    `json:"rule,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	ID        string    `json:"id,omitempty"`
	Seq       int64     `json:"seq,omitempty"`
	Error     string    `json:"error,omitempty"`
	Mutations mutations `json:"mutations"`
}

var (
	ErrMissingWorld = errors.New("world is required")
	ErrMissingActor = errors.New("actor is required")
	ErrMissingState = errors.New("state is required")
)

func (h Handler) interact(c context.Context, ctx *app.RequestContext) {
	var body interactRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	ev, world, player, err := buildEvent(body)
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
		return
	}

	report, err := h.Dispatcher.Dispatch(c, ev)
	resp := interactResponse{
		Result:   report.Result.String(),
		Filtered: report.Filtered,
		Mutations: mutations{
			Spawned:    []stackBody{},
			Swing:      len(player.Swings()) > 0,
			Exhaustion: player.Exhaustion(),
		},
	}
	if report.Record.ID != "" {
		resp.Outcome = report.Record.Outcome
		resp.Rule = report.Record.Rule
		resp.Reason = report.Record.Reason
		resp.ID = report.Record.ID
		resp.Seq = report.Record.Seq
	}
	if err != nil {
		// The host still gets Pass; the error is informational.
		h.logger().Warn("interaction failed", "pos", ev.Pos.String(), "error", err)
		resp.Error = err.Error()
	}

	for _, s := range world.Spawned() {
		resp.Mutations.Spawned = append(resp.Mutations.Spawned, stackBody{Item: string(s.Stack.Item), Count: s.Stack.Count})
	}
	if placed := world.Placed(); len(placed) > 0 {
		resp.Mutations.Placed = placed[len(placed)-1].State.String()
	}

	ctx.JSON(consts.StatusOK, resp)
}

// buildEvent replays the snapshot into a one-shot world.
func buildEvent(body interactRequest) (dispatch.Event, *sim.World, *sim.Player, error) {
	if body.World == "" {
		return dispatch.Event{}, nil, nil, ErrMissingWorld
	}
	if body.Actor == "" {
		return dispatch.Event{}, nil, nil, ErrMissingActor
	}
	if body.State == "" {
		return dispatch.Event{}, nil, nil, ErrMissingState
	}

	state, err := game.ParseBlockState(body.State)
	if err != nil {
		return dispatch.Event{}, nil, nil, err
	}
	hand, err := game.ParseHand(body.Hand)
	if err != nil {
		return dispatch.Event{}, nil, nil, err
	}
	drops := make([]game.ItemStack, len(body.Drops))
	for i, d := range body.Drops {
		st, err := toStack(d)
		if err != nil {
			return dispatch.Event{}, nil, nil, err
		}
		drops[i] = st
	}
	var held game.ItemStack
	if body.Held != nil {
		if held, err = toStack(*body.Held); err != nil {
			return dispatch.Event{}, nil, nil, err
		}
	}

	world := sim.NewWorld(body.World)
	if body.Client {
		world = sim.NewClientWorld(body.World)
	}
	pos := game.BlockPos{X: body.Pos.X, Y: body.Pos.Y, Z: body.Pos.Z}
	world.Place(pos, state)
	if body.Entity != nil {
		world.SetEntity(pos, body.Entity)
	}
	world.SetLoot(state.String(), drops...)

	player := sim.NewPlayer(body.Actor, held)
	facing := game.Direction(body.Facing)
	if facing == "" {
		facing = game.Up
	}

	return dispatch.Event{
		World:  world,
		Actor:  player,
		Hand:   hand,
		Pos:    pos,
		Facing: facing,
		Hit:    dispatch.Vec3{X: body.Hit.X, Y: body.Hit.Y, Z: body.Hit.Z},
	}, world, player, nil
}

func toStack(s stackBody) (game.ItemStack, error) {
	id, err := game.ParseIdentifier(s.Item)
	if err != nil {
		return game.ItemStack{}, err
	}
	if s.Count < 0 {
		return game.ItemStack{}, errors.New("stack count must be non-negative")
	}
	return game.Stack(id, s.Count), nil
}

func (h Handler) catalog(_ context.Context, ctx *app.RequestContext) {
	b, err := config.Marshal(h.Dispatcher.Catalog())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "application/json", b)
}

func (h Handler) stats(c context.Context, ctx *app.RequestContext) {
	if h.Log == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "harvest log not configured")
		return
	}
	st, err := h.Log.Stats(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, st)
}

func (h Handler) history(c context.Context, ctx *app.RequestContext) {
	if h.Log == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "harvest log not configured")
		return
	}
	q, err := historyQuery(ctx)
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
		return
	}
	records, err := h.Log.Find(c, q)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"interactions": records})
}

// historyQuery reads ?limit, ?since and one ?<field>=<value> per log field.
func historyQuery(ctx *app.RequestContext) (queryir.Query, error) {
	q := queryir.Query{Limit: defaultHistoryLimit}
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, errors.New("limit must be a positive integer")
		}
		q.Limit = n
	}

	var preds []queryir.Predicate
	if raw := ctx.Query("since"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return q, errors.New("since must be a non-negative integer")
		}
		preds = append(preds, queryir.Since{Seq: n})
	}
	for _, field := range filterFields {
		raw := ctx.Query(field)
		if raw == "" {
			continue
		}
		eq, err := queryir.Typed(field, raw)
		if err != nil {
			return q, err
		}
		preds = append(preds, eq)
	}
	q.Filter = queryir.All(preds...)
	return q, nil
}

func (h Handler) position(c context.Context, ctx *app.RequestContext) {
	if h.Log == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "harvest log not configured")
		return
	}
	world := ctx.Query("world")
	if world == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", ErrMissingWorld.Error())
		return
	}
	var coords [3]int
	for i, key := range []string{"x", "y", "z"} {
		n, err := strconv.Atoi(ctx.Query(key))
		if err != nil {
			writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", key+" must be an integer")
			return
		}
		coords[i] = n
	}
	ps, err := h.Log.GetPositionState(c, world, coords[0], coords[1], coords[2])
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, ps)
}

func (h Handler) healthz(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"status":       "ok",
		"catalog_hash": h.Dispatcher.Catalog().Hash(),
		"rules":        h.Dispatcher.Catalog().Len(),
	})
}

func (h Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "cancelled", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
