package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

type DiscordBotService struct {
	session   *discordgo.Session
	channelID string
	botID     string
	enabled   bool
}

func NewDiscordBotService(token string, channelID string) (*DiscordBotService, error) {
	if token == "" {
		log.Println("Discord bot token not provided, Discord notifications disabled")
		return &DiscordBotService{enabled: false}, nil
	}

	if channelID == "" {
		log.Println("Discord channel ID not provided, Discord notifications disabled")
		return &DiscordBotService{enabled: false}, nil
	}

	// Create Discord session with Bot prefix
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Get bot user information
	user, err := session.User("@me")
	if err != nil {
		return nil, fmt.Errorf("failed to get bot user: %w", err)
	}

	botService := &DiscordBotService{
		session:   session,
		channelID: channelID,
		botID:     user.ID,
		enabled:   true,
	}

	// Add message handler for potential interactive features
	session.AddHandler(botService.messageHandler)

	// Open websocket connection to Discord
	err = session.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}

	log.Printf("Discord bot connected successfully! Bot ID: %s, Channel: %s", user.ID, channelID)

	return botService, nil
}

func (d *DiscordBotService) Close() {
	if d.enabled && d.session != nil {
		log.Println("Closing Discord bot connection...")
		d.session.Close()
	}
}

// messageHandler handles incoming Discord messages (for potential interactive features)
func (d *DiscordBotService) messageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from the bot itself
	if m.Author.ID == d.botID {
		return
	}

	// Only respond in the configured channel
	if m.ChannelID != d.channelID {
		return
	}

	// Simple command handling for future expansion
	if strings.HasPrefix(m.Content, "!plant") {
		args := strings.Fields(m.Content)
		if len(args) < 2 {
			return
		}

		cmd := args[1]
		switch cmd {
		case "ping":
			s.ChannelMessageSend(m.ChannelID, "🌱 Pong! Plant analyzer bot is online!")
		case "help":
			helpMsg := "**Plant Analyzer Bot Commands:**\n" +
				"`!plant ping` - Check if bot is online\n" +
				"`!plant help` - Show this help message\n" +
				"`!plant status` - Where to find the latest reports"
			s.ChannelMessageSend(m.ChannelID, helpMsg)
		case "status":
			s.ChannelMessageSend(m.ChannelID, "Use the API endpoints to get the latest growth reports!")
		default:
			s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Unknown command: `%s`. Try `!plant help`", cmd))
		}
	}
}

// SendReport sends a growth report summary to Discord
func (d *DiscordBotService) SendReport(run *models.AnalysisRun) error {
	if !d.enabled {
		return fmt.Errorf("Discord bot not enabled")
	}
	if run == nil || run.Report == nil {
		return fmt.Errorf("run has no report")
	}

	embed := d.createReportEmbed(run)

	_, err := d.session.ChannelMessageSendEmbed(d.channelID, embed)
	if err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}

	log.Printf("Report sent to Discord: %s (%s)", run.Profile, run.Report.Band)
	return nil
}

// SendRunFailure reports a failed analysis run
func (d *DiscordBotService) SendRunFailure(run *models.AnalysisRun) error {
	if !d.enabled {
		return fmt.Errorf("Discord bot not enabled")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "⚠️ Analysis Failed: " + run.Profile,
		Description: run.Error,
		Color:       15158332, // Red
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Trigger",
				Value:  run.Trigger,
				Inline: true,
			},
			{
				Name:   "Window",
				Value:  fmt.Sprintf("%d days", run.WindowDays),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Run ID: %s", run.ID),
		},
		Timestamp: run.FinishedAt.Format(time.RFC3339),
	}

	_, err := d.session.ChannelMessageSendEmbed(d.channelID, embed)
	if err != nil {
		return fmt.Errorf("failed to send failure notice: %w", err)
	}

	log.Printf("Failure notice sent to Discord: %s", run.Profile)
	return nil
}

func (d *DiscordBotService) createReportEmbed(run *models.AnalysisRun) *discordgo.MessageEmbed {
	report := run.Report

	// Deficient reports get the louder header
	title := "🌱 Growth Report: " + run.Profile
	if report.Band == models.BandDeficient {
		title = "🚨 Growth Report: " + run.Profile
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("Growing conditions for %s", report.PlantType),
		Color:       d.colorForBand(report.Band),
		Fields:      d.buildReportFields(run),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Run ID: %s", run.ID),
		},
		Timestamp: run.FinishedAt.Format(time.RFC3339),
	}

	return embed
}

func (d *DiscordBotService) colorForBand(band string) int {
	switch band {
	case models.BandExcellent:
		return 3066993 // Green
	case models.BandGood:
		return 3447003 // Blue
	case models.BandAcceptable:
		return 15844367 // Gold/Yellow
	case models.BandDeficient:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

func (d *DiscordBotService) buildReportFields(run *models.AnalysisRun) []*discordgo.MessageEmbedField {
	report := run.Report

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Overall Score",
			Value:  fmt.Sprintf("%.1f / 100", report.OverallScore),
			Inline: true,
		},
		{
			Name:   "Band",
			Value:  strings.Title(report.Band),
			Inline: true,
		},
		{
			Name:   "Window",
			Value:  fmt.Sprintf("last %d days", run.WindowDays),
			Inline: true,
		},
	}

	// One field per parameter that needs attention
	for _, a := range report.Assessments {
		if a.Status == models.StatusOptimal {
			continue
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   d.formatParameter(a.Parameter),
			Value:  fmt.Sprintf("%s | %.0f%% in range | trend %s", strings.Title(a.Status), a.InRangeFraction*100, a.Trend),
			Inline: false,
		})
	}

	if len(report.Recommendations) > 0 {
		var b strings.Builder
		for i, rec := range report.Recommendations {
			if i == 3 {
				fmt.Fprintf(&b, "…and %d more", len(report.Recommendations)-3)
				break
			}
			b.WriteString("• " + rec.Action + "\n")
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Recommendations",
			Value:  strings.TrimRight(b.String(), "\n"),
			Inline: false,
		})
	}

	return fields
}

func (d *DiscordBotService) formatParameter(param string) string {
	return strings.Title(strings.ReplaceAll(param, "_", " "))
}

// SendMessage sends a simple text message to the channel
func (d *DiscordBotService) SendMessage(message string) error {
	if !d.enabled {
		return fmt.Errorf("Discord bot not enabled")
	}

	_, err := d.session.ChannelMessageSend(d.channelID, message)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
