package controlplane

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/fentz26/hogar/internal/board"
	"github.com/fentz26/hogar/internal/models"
	"github.com/fentz26/hogar/internal/roster"
	"github.com/fentz26/hogar/internal/store"
)

// Version is reported by /health.
var Version = "dev"

const maxBodySize = 64 << 10

// Server provides the HTTP API for the board.
type Server struct {
	service *Service
	addr    string
	echo    *echo.Echo
	logger  *log.Logger
}

// NewServer creates a new HTTP server and registers its routes.
func NewServer(service *Service, addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			}).Debug("request")
			return nil
		},
	}))
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	s := &Server{service: service, addr: addr, echo: e, logger: logger}
	s.register()
	return s
}

func (s *Server) register() {
	e := s.echo
	e.GET("/health", s.handleHealth)
	e.GET("/roster", s.getRoster)
	e.GET("/timeslots", s.getTimeslots)

	e.GET("/tasks", s.listTasks)
	e.POST("/tasks", s.addTemplate)
	e.POST("/tasks/:id/assign", s.assignTask)
	e.POST("/tasks/:id/complete", s.completeTask)
	e.POST("/tasks/:id/undo", s.undoTask)
	e.POST("/tasks/:id/release", s.releaseTask)
	e.POST("/tasks/:id/stock", s.adjustStock)

	e.GET("/summary", s.getSummary)
	e.GET("/balances", s.getBalances)
	e.POST("/day/reset", s.resetDay)
	e.GET("/day/preview", s.previewReset)
	e.GET("/history", s.getHistory)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.addr).Info("starting hogar daemon")
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrStockExhausted),
		errors.Is(err, board.ErrNotAssignable),
		errors.Is(err, board.ErrAlreadyDone),
		errors.Is(err, board.ErrNotAssigned):
		return http.StatusConflict
	case errors.Is(err, board.ErrInvalidRecord),
		errors.Is(err, board.ErrNotStocked),
		errors.Is(err, board.ErrNoUser),
		errors.Is(err, ErrInvalidTimeslot),
		errors.Is(err, ErrInvalidView):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrTaskNotFound),
		errors.Is(err, roster.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotOwner),
		errors.Is(err, board.ErrWrongAudience):
		return http.StatusForbidden
	case store.IsPersistence(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c echo.Context, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.JSON(code, errorResponse{Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func decodeBody(c echo.Context, v interface{}) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func taskID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Health ---

// HealthResponse is the /health body.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Store   string `json:"store"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		OK:      true,
		Store:   "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		resp.OK = false
		resp.Store = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}

func (s *Server) getRoster(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Roster())
}

func (s *Server) getTimeslots(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Timeslots())
}

// --- Tasks ---

func (s *Server) listTasks(c echo.Context) error {
	var status models.TaskStatus
	if raw := c.QueryParam("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		status = st
	}
	view := View(strings.ToLower(c.QueryParam("view")))
	tasks, err := s.service.ListTasks(c.Request().Context(), c.QueryParam("user"), view, status)
	if err != nil {
		return s.fail(c, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

type addTemplateRequest struct {
	User       string            `json:"user"`
	Name       string            `json:"name"`
	Recurrence string            `json:"recurrence"`
	Kind       string            `json:"kind"`
	Audience   string            `json:"audience"`
	Stock      int               `json:"stock"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// spec parses the enum fields, accepting legacy spellings.
func (r addTemplateRequest) spec() (board.TemplateSpec, error) {
	spec := board.TemplateSpec{Name: r.Name, Stock: r.Stock, Extra: r.Extra}
	var err error
	if spec.Recurrence, err = models.ParseRecurrence(r.Recurrence); err != nil {
		return spec, errors.Join(board.ErrInvalidRecord, err)
	}
	if spec.Kind, err = models.ParseKind(r.Kind); err != nil {
		return spec, errors.Join(board.ErrInvalidRecord, err)
	}
	if spec.Audience, err = models.ParseAudience(r.Audience); err != nil {
		return spec, errors.Join(board.ErrInvalidRecord, err)
	}
	return spec, nil
}

func (s *Server) addTemplate(c echo.Context) error {
	var req addTemplateRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	spec, err := req.spec()
	if err != nil {
		return s.fail(c, err)
	}
	task, err := s.service.AddTemplate(c.Request().Context(), req.User, spec)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

type userRequest struct {
	User string `json:"user"`
}

type assignRequest struct {
	User     string `json:"user"`
	Timeslot string `json:"timeslot"`
}

func (s *Server) assignTask(c echo.Context) error {
	id, ok := taskID(c)
	if !ok {
		return badRequest(c, "invalid task id")
	}
	var req assignRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := s.service.Assign(c.Request().Context(), req.User, id, req.Timeslot)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) completeTask(c echo.Context) error {
	return s.statusChange(c, s.service.Complete)
}

func (s *Server) undoTask(c echo.Context) error {
	return s.statusChange(c, s.service.Undo)
}

func (s *Server) statusChange(c echo.Context, fn func(context.Context, string, int) (models.Task, error)) error {
	id, ok := taskID(c)
	if !ok {
		return badRequest(c, "invalid task id")
	}
	var req userRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	task, err := fn(c.Request().Context(), req.User, id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) releaseTask(c echo.Context) error {
	id, ok := taskID(c)
	if !ok {
		return badRequest(c, "invalid task id")
	}
	var req userRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := s.service.Release(c.Request().Context(), req.User, id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// stockRequest carries either a delta or an absolute value.
type stockRequest struct {
	User  string `json:"user"`
	Delta *int   `json:"delta,omitempty"`
	Set   *int   `json:"set,omitempty"`
}

func (s *Server) adjustStock(c echo.Context) error {
	id, ok := taskID(c)
	if !ok {
		return badRequest(c, "invalid task id")
	}
	var req stockRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}

	var task models.Task
	var err error
	switch {
	case req.Delta != nil && req.Set == nil:
		task, err = s.service.AdjustStock(c.Request().Context(), req.User, id, *req.Delta)
	case req.Set != nil && req.Delta == nil:
		task, err = s.service.SetStock(c.Request().Context(), req.User, id, *req.Set)
	default:
		return badRequest(c, "exactly one of delta or set is required")
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// --- Summary, reset, history ---

func (s *Server) getSummary(c echo.Context) error {
	sum, err := s.service.Summary(c.Request().Context(), c.QueryParam("user"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) getBalances(c echo.Context) error {
	b, err := s.service.Balances(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	if b == nil {
		b = []board.Balance{}
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) resetDay(c echo.Context) error {
	var req userRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := s.service.ResetDay(c.Request().Context(), req.User)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) previewReset(c echo.Context) error {
	res, err := s.service.PreviewReset(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) getHistory(c echo.Context) error {
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "invalid limit")
		}
		limit = n
	}
	entries, err := s.service.History(c.Request().Context(), c.QueryParam("user"), c.QueryParam("owner"), limit)
	if err != nil {
		return s.fail(c, err)
	}
	if entries == nil {
		entries = []models.ArchiveEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}
