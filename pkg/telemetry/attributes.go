package telemetry

import (
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Exchange
	AttrExchangeID    = "exchange.id"
	AttrExchangeSlug  = "exchange.slug"
	AttrExchangeGuild = "exchange.guild_id"
	AttrExchangeState = "exchange.state"

	// Команды
	AttrCommand     = "command.name"
	AttrCommandUser = "command.user_id"

	// Сеть потока
	AttrNetworkVertices = "network.vertices"
	AttrNetworkEdges    = "network.edges"
	AttrMaxFlow         = "network.max_flow"
	AttrPhases          = "network.phases"

	// Назначения
	AttrAssignmentRunID       = "assignment.run_id"
	AttrAssignmentSubmissions = "assignment.submissions"
	AttrAssignmentGamesPer    = "assignment.games_per_member"
)

// ExchangeAttributes возвращает атрибуты exchange
func ExchangeAttributes(id int64, slug string, guildID uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrExchangeID, id),
		attribute.String(AttrExchangeSlug, slug),
		attribute.String(AttrExchangeGuild, formatUint(guildID)),
	}
}

// CommandAttributes возвращает атрибуты команды
func CommandAttributes(command string, userID uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCommand, command),
		attribute.String(AttrCommandUser, formatUint(userID)),
	}
}

// NetworkAttributes возвращает атрибуты сети потока
func NetworkAttributes(vertices, edges int, maxFlow int64, phases int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrNetworkVertices, vertices),
		attribute.Int(AttrNetworkEdges, edges),
		attribute.Int64(AttrMaxFlow, maxFlow),
		attribute.Int(AttrPhases, phases),
	}
}

// AssignmentAttributes возвращает атрибуты прогона назначений
func AssignmentAttributes(runID string, submissions, gamesPerMember int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAssignmentRunID, runID),
		attribute.Int(AttrAssignmentSubmissions, submissions),
		attribute.Int(AttrAssignmentGamesPer, gamesPerMember),
	}
}

// Snowflake атрибуты пишем строками: uint64 не влезает в attribute.Int64.
func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
