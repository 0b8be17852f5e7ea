package api

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tychoorderbook/internal/api/handlers"
	"tychoorderbook/internal/api/middleware"
	"tychoorderbook/internal/eventhub"
	"tychoorderbook/internal/orderbook"
	"tychoorderbook/internal/repository"
	"tychoorderbook/internal/state"
	"tychoorderbook/internal/valuation"
)

// Dependencies holds every object routes.go needs to wire handlers.
// OperatorTokenHash and Hub are optional: a zero value disables
// the Auth middleware / the /ws/stream endpoint respectively.
type Dependencies struct {
	Builder           *orderbook.Builder
	Router            *valuation.Router
	Store             *state.Store
	Pairs             *repository.WatchedPairRepository
	Audits            *repository.BuildAuditRepository
	Hub               *eventhub.Hub
	OperatorTokenHash string
	Log               *zap.Logger
}

// SetupRoutes wires the orderbook API's handlers and middleware chain.
//
// Route map:
//
// /api/v1/
//
//	├── /orderbook/{tag}          GET  full bid/ask ladder for a pair tag
//	├── /orderbook/{tag}/midprice GET  lightweight mid-price probe
//	├── /orderbook/{tag}/probe    GET  single-point probe (?amount=&direction=)
//	├── /tokens/{address}/value   GET  token value in the chain reference token
//	└── /pairs/
//	    ├── GET  /          list watched pairs
//	    ├── POST /          watch a new pair               (auth)
//	    ├── DELETE /{id}    stop watching a pair            (auth)
//	    ├── POST /{id}/pause  pause a watched pair          (auth)
//	    └── POST /{id}/resume resume a watched pair         (auth)
//
// /ws/stream   GET  WebSocket fan-out of block-applied events
// /healthz     GET  liveness probe
// /metrics     GET  Prometheus exposition
//
// Middleware order: Recovery -> Logging -> CORS -> [Auth on mutating
// pair routes only].
func SetupRoutes(deps *Dependencies) *mux.Router {
	log := zap.NewNop()
	if deps != nil && deps.Log != nil {
		log = deps.Log
	}

	router := mux.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS)

	var orderbookHandler *handlers.OrderbookHandler
	var tokenHandler *handlers.TokenHandler
	var pairHandler *handlers.PairHandler
	if deps != nil {
		if deps.Builder != nil {
			orderbookHandler = handlers.NewOrderbookHandler(deps.Builder, deps.Router, deps.Audits, log)
		}
		if deps.Store != nil && deps.Router != nil {
			tokenHandler = handlers.NewTokenHandler(deps.Store, deps.Router)
		}
		if deps.Pairs != nil {
			pairHandler = handlers.NewPairHandler(deps.Pairs)
		}
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	if orderbookHandler != nil {
		api.HandleFunc("/orderbook/{tag}", orderbookHandler.GetOrderbook).Methods("GET")
		api.HandleFunc("/orderbook/{tag}/midprice", orderbookHandler.GetMidPrice).Methods("GET")
		api.HandleFunc("/orderbook/{tag}/probe", orderbookHandler.ProbeOrderbook).Methods("GET")
	}

	if tokenHandler != nil {
		api.HandleFunc("/tokens/{address}/value", tokenHandler.GetValue).Methods("GET")
	}

	if pairHandler != nil {
		api.HandleFunc("/pairs", pairHandler.GetPairs).Methods("GET")

		mutating := api.PathPrefix("/pairs").Subrouter()
		mutating.Use(middleware.Auth(deps.OperatorTokenHash, log))
		mutating.HandleFunc("", pairHandler.CreatePair).Methods("POST")
		mutating.HandleFunc("/{id}", pairHandler.DeletePair).Methods("DELETE")
		mutating.HandleFunc("/{id}/pause", pairHandler.PausePair).Methods("POST")
		mutating.HandleFunc("/{id}/resume", pairHandler.ResumePair).Methods("POST")
	}

	if deps != nil && deps.Hub != nil {
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			eventhub.ServeWS(deps.Hub, log, w, r)
		}).Methods("GET")
	}

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps != nil && deps.Store != nil && !deps.Store.IsInitialised() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.HandleFunc("/heap", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("heap").ServeHTTP(w, r)
	})
	debug.HandleFunc("/goroutine", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("goroutine").ServeHTTP(w, r)
	})

	router.HandleFunc("/debug/runtime", func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{`))
		w.Write([]byte(`"goroutines":` + itoa(runtime.NumGoroutine()) + `,`))
		w.Write([]byte(`"heap_alloc_mb":` + ftoa(float64(m.HeapAlloc)/1024/1024) + `,`))
		w.Write([]byte(`"num_gc":` + itoa(int(m.NumGC))))
		w.Write([]byte(`}`))
	}).Methods("GET")

	return router
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	pos := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}

func ftoa(f float64) string {
	i := int(f * 100)
	whole := i / 100
	frac := i % 100
	if frac < 0 {
		frac = -frac
	}
	fracStr := itoa(frac)
	if len(fracStr) == 1 {
		fracStr = "0" + fracStr
	}
	return itoa(whole) + "." + fracStr
}
