package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// GameServiceName is the fully-qualified name of the GameService service.
const GameServiceName = "oddcard.game.v1.GameService"

// Fully-qualified procedure names, in the form "/<service>/<method>".
const (
	GameServiceCreateSessionProcedure = "/oddcard.game.v1.GameService/CreateSession"
	GameServiceGetSnapshotProcedure   = "/oddcard.game.v1.GameService/GetSnapshot"
	GameServiceStartGameProcedure     = "/oddcard.game.v1.GameService/StartGame"
	GameServiceTapCardProcedure       = "/oddcard.game.v1.GameService/TapCard"
	GameServiceAcknowledgeProcedure   = "/oddcard.game.v1.GameService/Acknowledge"
)

// GameServiceHandler is implemented by the server side of GameService.
type GameServiceHandler interface {
	CreateSession(context.Context, *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error)
	GetSnapshot(context.Context, *connect.Request[GetSnapshotRequest]) (*connect.Response[GetSnapshotResponse], error)
	StartGame(context.Context, *connect.Request[StartGameRequest]) (*connect.Response[StartGameResponse], error)
	TapCard(context.Context, *connect.Request[TapCardRequest]) (*connect.Response[TapCardResponse], error)
	Acknowledge(context.Context, *connect.Request[AcknowledgeRequest]) (*connect.Response[AcknowledgeResponse], error)
}

// NewGameServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewGameServiceHandler(svc GameServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	createSessionHandler := connect.NewUnaryHandler(GameServiceCreateSessionProcedure, svc.CreateSession, opts...)
	getSnapshotHandler := connect.NewUnaryHandler(GameServiceGetSnapshotProcedure, svc.GetSnapshot, opts...)
	startGameHandler := connect.NewUnaryHandler(GameServiceStartGameProcedure, svc.StartGame, opts...)
	tapCardHandler := connect.NewUnaryHandler(GameServiceTapCardProcedure, svc.TapCard, opts...)
	acknowledgeHandler := connect.NewUnaryHandler(GameServiceAcknowledgeProcedure, svc.Acknowledge, opts...)

	return "/" + GameServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GameServiceCreateSessionProcedure:
			createSessionHandler.ServeHTTP(w, r)
		case GameServiceGetSnapshotProcedure:
			getSnapshotHandler.ServeHTTP(w, r)
		case GameServiceStartGameProcedure:
			startGameHandler.ServeHTTP(w, r)
		case GameServiceTapCardProcedure:
			tapCardHandler.ServeHTTP(w, r)
		case GameServiceAcknowledgeProcedure:
			acknowledgeHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// GameServiceClient is a client for the GameService service.
type GameServiceClient struct {
	createSession *connect.Client[CreateSessionRequest, CreateSessionResponse]
	getSnapshot   *connect.Client[GetSnapshotRequest, GetSnapshotResponse]
	startGame     *connect.Client[StartGameRequest, StartGameResponse]
	tapCard       *connect.Client[TapCardRequest, TapCardResponse]
	acknowledge   *connect.Client[AcknowledgeRequest, AcknowledgeResponse]
}

// NewGameServiceClient constructs a client for GameService at baseURL
// (for example, http://localhost:8080).
func NewGameServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GameServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &GameServiceClient{
		createSession: connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+GameServiceCreateSessionProcedure, opts...),
		getSnapshot:   connect.NewClient[GetSnapshotRequest, GetSnapshotResponse](httpClient, baseURL+GameServiceGetSnapshotProcedure, opts...),
		startGame:     connect.NewClient[StartGameRequest, StartGameResponse](httpClient, baseURL+GameServiceStartGameProcedure, opts...),
		tapCard:       connect.NewClient[TapCardRequest, TapCardResponse](httpClient, baseURL+GameServiceTapCardProcedure, opts...),
		acknowledge:   connect.NewClient[AcknowledgeRequest, AcknowledgeResponse](httpClient, baseURL+GameServiceAcknowledgeProcedure, opts...),
	}
}

func (c *GameServiceClient) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *GameServiceClient) GetSnapshot(ctx context.Context, req *connect.Request[GetSnapshotRequest]) (*connect.Response[GetSnapshotResponse], error) {
	return c.getSnapshot.CallUnary(ctx, req)
}

func (c *GameServiceClient) StartGame(ctx context.Context, req *connect.Request[StartGameRequest]) (*connect.Response[StartGameResponse], error) {
	return c.startGame.CallUnary(ctx, req)
}

func (c *GameServiceClient) TapCard(ctx context.Context, req *connect.Request[TapCardRequest]) (*connect.Response[TapCardResponse], error) {
	return c.tapCard.CallUnary(ctx, req)
}

func (c *GameServiceClient) Acknowledge(ctx context.Context, req *connect.Request[AcknowledgeRequest]) (*connect.Response[AcknowledgeResponse], error) {
	return c.acknowledge.CallUnary(ctx, req)
}
