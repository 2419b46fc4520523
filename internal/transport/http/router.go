package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/collab-service/internal/security"
	httpmw "github.com/cwrk-planet/collab-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/collab-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, signer *security.JWTSigner, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint
	r.Get("/ws", wsServer.HandleWS)

	// Координатор и auth доступны без Bearer: личность проверяется на краю
	r.Route("/api", func(api chi.Router) {
		api.Get("/check-room/{roomId}", h.CheckRoom)
		api.Post("/create-room", h.CreateRoom)
		api.Post("/request-join-room", h.RequestJoinRoom)
		api.Post("/chatbot", h.Chatbot)

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/signup", h.Signup)
			ar.Post("/login", h.Login)
		})

		// Всё остальное требует access token
		api.Group(func(pr chi.Router) {
			pr.Use(httpmw.AuthMiddleware(signer))
			pr.Use(middlewareChi.Timeout(30 * time.Second))

			pr.Get("/protected", h.Protected)

			pr.Route("/rooms", func(rm chi.Router) {
				rm.Post("/create", h.DirectoryCreate)
				rm.Post("/join", h.DirectoryJoin)
				rm.Post("/leave", h.DirectoryLeave)
			})

			pr.Route("/notepad", func(np chi.Router) {
				np.Post("/update", h.NotepadUpdate)
				np.Get("/{roomId}", h.NotepadGet)
			})

			pr.Post("/code/execute", h.ExecuteCode)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
