package discord

import (
	"github.com/bwmarrin/discordgo"

	"ratex/pkg/domain"
)

// commandDefinitions описывает slash-команды бота. Список целиком
// перезаписывается через bulk overwrite при каждом старте.
func commandDefinitions() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)
	guildOnly := false
	minGames := float64(domain.MinGamesPerMember)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "exchange",
			Description:              "Manage rating exchanges.",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a rating exchange.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "type",
							Description: "The jam type.",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: domain.JamTypeItch.DisplayName(), Value: domain.JamTypeItch.String()},
								{Name: domain.JamTypeLudumDare.DisplayName(), Value: domain.JamTypeLudumDare.String()},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "link",
							Description: "The jam link. Must correspond to the jam type.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "display_name",
							Description: "The display name of the exchange to use in announcements.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "The channel to post exchange announcements and accept submissions in.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "games_per_member",
							Description: "The number of games assigned to each member. Defaults to 5.",
							MinValue:    &minGames,
							MaxValue:    float64(domain.MaxGamesPerMember),
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "start",
							Description: "When the exchange starts. Defaults to now.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "duration",
							Description: "Duration of the exchange. Defaults to 24 hours.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "slug",
							Description: "The name of the exchange to use in commands. Must consist only of `A-Za-z0-9_-`.",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List upcoming rating exchanges.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete an exchange that has not started yet.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "slug",
							Description: "Exchange slug",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "report",
					Description: "Export a report file for an exchange.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "slug",
							Description: "Exchange slug",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:         "submit",
			Description:  "Submit your game to the active review exchange.",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "link",
					Description: "Submission link",
					Required:    true,
				},
			},
		},
		{
			Name:         "revoke",
			Description:  "Revoke your submission from the active review exchange.",
			DMPermission: &guildOnly,
		},
		{
			Name:         "played",
			Description:  "Register the game as played, so the bot won't assign it to you.",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "link",
					Description: "Submission link",
					Required:    true,
				},
			},
		},
		{
			Name:        "help",
			Description: "Get help for available bot commands.",
		},
	}
}
