package constants

// Centralized constants for headers, env keys, routes and websocket events.
const (
	// Environment variable keys
	EnvSessionSecret       = "SESSION_SECRET"
	EnvGoogleClientID      = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret  = "GOOGLE_CLIENT_SECRET"
	EnvSessionSecureCookie = "SESSION_SECURE_COOKIE"
	EnvConfigPath          = "ROSTER_CONFIG"
	EnvDBPath              = "ROSTER_DB"

	// Session / Cookie names
	CookieSessionName = "rc_session"

	// Google OAuth constants
	GoogleOAuthRedirect = "postmessage"
	GoogleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	// Scopes for Google userinfo
	GoogleUserInfoScopes = []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"}
)

// Routes used by the backend router
const (
	RouteAPIPrefix          = "/api"
	RouteLeaderboard        = "/leaderboard"
	RoutePlayerStats        = "/player-stats"
	RouteDecks              = "/decks"
	RouteDeckByID           = "/decks/:deckID"
	RouteGameSocket         = "/ws"
	RouteAuthGoogleCallBack = "/auth/google/oauth2callback"
)

// Websocket event names, client -> server
const (
	EventQueueJoin  = "queue.join"
	EventQueueLeave = "queue.leave"
	EventStrategy   = "match.strategy"
	EventForfeit    = "match.forfeit"
)

// Websocket event names, server -> client
const (
	EventQueueSize     = "queue.size"
	EventQueueError    = "queue.error"
	EventMatchFound    = "match.found"
	EventRoundStart    = "round.start"
	EventRoundResult   = "round.result"
	EventRoundFlavor   = "round.commentary"
	EventMatchComplete = "match.complete"
	EventMatchError    = "match.error"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyDetails = "details"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest         = "Invalid request"
	ErrMissingGoogleEnv       = "Missing GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET in environment"
	ErrFailedFetchLeaderboard = "Failed to fetch leaderboard"
	ErrFailedFetchStats       = "Failed to fetch stats"
	ErrFailedFetchDecks       = "Failed to fetch decks"
	ErrDeckNotFound           = "Deck not found"
	ErrInvalidDeckID          = "Invalid deck ID"

	ErrFailedExchangeToken    = "Failed to exchange token"
	ErrFailedGetUserInfo      = "Failed to get user info"
	ErrFailedReadUserData     = "Failed to read user data: %s"
	ErrNoEmailInGoogleProfile = "No email in Google profile"
	ErrFailedCreateSession    = "Failed to create session"

	ErrAuthRequired   = "Authentication required"
	ErrInvalidSession = "Invalid session"

	ErrWebsocketUpgradeFailed = "Failed to upgrade connection"
)

// Queue rejection messages pushed over the websocket
const (
	ErrNoActiveDeck      = "No active deck"
	ErrDeckIncomplete    = "Deck must fill all five positions"
	ErrDeckOverCap       = "Deck exceeds the salary cap"
	ErrAlreadyInMatch    = "Already in an active match"
	ErrUnknownQueueMode  = "Unknown queue mode"
	ErrInvalidStrategy   = "Invalid strategy choice"
	ErrNoActiveSession   = "No active match session"
	ErrSettlementFailed  = "Failed to record the match result"
)

// Logging field names
const (
	LogFieldMatchID  = "match_id"
	LogFieldUserID   = "user_id"
	LogFieldConnID   = "connection_id"
	LogFieldQueue    = "queue"
	LogFieldRound    = "round"
	LogFieldAddr     = "addr"
	LogFieldDeckID   = "deck_id"
	LogFieldStrategy = "strategy"
	LogFieldEvent    = "event"
)
