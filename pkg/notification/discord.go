package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/format"
	"github.com/autobrr/tqv/pkg/httputils"
)

const (
	maxEmbedsPerMessage = 10
	maxCharactersPerMsg = 6000

	// hardcoded limit of fields to avoid hammering the api
	maxTotalFields = 250
)

type DiscordMessage struct {
	Content   interface{}    `json:"content"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Color       int                  `json:"color"`
	Fields      []DiscordEmbedsField `json:"fields,omitempty"`
	Footer      DiscordEmbedsFooter  `json:"footer,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type DiscordEmbedsFooter struct {
	Text string `json:"text"`
}

type DiscordEmbedsField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedColors int

const (
	LIGHT_BLUE EmbedColors = 0x58b9ff
	RED        EmbedColors = 0xed4245
	GREEN      EmbedColors = 0x57f287
	GRAY       EmbedColors = 0x99aab5
)

// Discord markdown characters that need escaping
var discordMarkdownChars = regexp.MustCompile(`([\\*_~` + "`" + `|>])`)

func escapeDiscordMarkdown(text string) string {
	if text == "" {
		return text
	}

	return discordMarkdownChars.ReplaceAllString(text, `\$1`)
}

type discordSender struct {
	log    *logrus.Entry
	config config.NotificationsConfig

	httpClient *http.Client
}

func NewDiscordSender(log *logrus.Entry, config config.NotificationsConfig) Sender {
	return &discordSender{
		log:    log.WithField("sender", "discord"),
		config: config,
		// webhooks allow 5 requests per 2 seconds
		httpClient: httputils.NewRetryableHttpClient(30*time.Second, ratelimit.New(2)),
	}
}

func (d *discordSender) Name() string {
	return "discord"
}

func (d *discordSender) CanSend() bool {
	return d.config.Service.Discord.WebhookURL != ""
}

func (d *discordSender) Send(title string, description string, client string, runTime time.Duration, fields []Field, dryRun bool) error {
	var (
		allEmbeds   []DiscordEmbed
		totalFields = len(fields)
		timestamp   = time.Now()

		batches      [][]DiscordEmbed
		currentBatch []DiscordEmbed
		currentChars int
	)

	if dryRun {
		title = title + " [Dry Run]"
	}

	if totalFields == 0 && d.config.SkipEmptyRun {
		return nil
	}

	rt := runTime.Truncate(time.Millisecond).String()

	// one embed per torrent in detailed mode, otherwise only the summary
	if totalFields == 0 || totalFields > maxTotalFields || !d.config.Detailed {
		allEmbeds = append(allEmbeds, DiscordEmbed{
			Title:       title,
			Description: description,
			Color:       int(LIGHT_BLUE),
			Footer:      DiscordEmbedsFooter{Text: d.buildFooter(0, 0, client, rt)},
			Timestamp:   timestamp,
		})
	} else {
		for i, field := range fields {
			embed := DiscordEmbed{
				Color:     int(LIGHT_BLUE),
				Fields:    parseFieldValueToInlineFields(field.Value),
				Footer:    DiscordEmbedsFooter{Text: d.buildFooter(i+1, totalFields, client, rt)},
				Timestamp: timestamp,
			}

			if field.Name != "" {
				embed.Description = fmt.Sprintf("**%s**", escapeDiscordMarkdown(field.Name))
			}

			allEmbeds = append(allEmbeds, embed)
		}

		if totalFields > 1 {
			allEmbeds = append(allEmbeds, DiscordEmbed{
				Title:       fmt.Sprintf("%s - Summary", title),
				Description: description,
				Color:       int(LIGHT_BLUE),
				Footer:      DiscordEmbedsFooter{Text: d.buildFooter(0, 0, client, rt)},
				Timestamp:   timestamp,
			})
		}
	}

	// batch embeds under discord's per-message limits
	flush := func() {
		if len(currentBatch) == 0 {
			return
		}
		batches = append(batches, currentBatch)
		currentBatch = nil
		currentChars = 0
	}

	for _, e := range allEmbeds {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("calculate embed size: %w", err)
		}

		if len(currentBatch) >= maxEmbedsPerMessage || currentChars+len(data) > maxCharactersPerMsg {
			flush()
		}

		currentBatch = append(currentBatch, e)
		currentChars += len(data)
	}
	flush()

	totalMsgs := len(batches)
	for i, batch := range batches {
		if batch[0].Title == "" {
			batch[0].Title = escapeDiscordMarkdown(title)
			if totalMsgs > 1 {
				batch[0].Title = fmt.Sprintf("%s (%d/%d)", batch[0].Title, i+1, totalMsgs)
			}
		}

		msg := DiscordMessage{
			Content:   nil,
			Username:  d.config.Service.Discord.Username,
			AvatarURL: d.config.Service.Discord.AvatarURL,
			Embeds:    batch,
		}

		jsonData, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}

		if err := d.sendRequest(jsonData); err != nil {
			return fmt.Errorf("send message %d/%d: %w", i+1, totalMsgs, err)
		}

		d.log.Debugf("Sent Discord message %d/%d (%d embeds, %d chars).", i+1, totalMsgs, len(batch), len(jsonData))
	}

	return nil
}

func (d *discordSender) sendRequest(jsonData []byte) error {
	req, err := http.NewRequest(http.MethodPost, d.config.Service.Discord.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client request: %w", err)
	}
	defer res.Body.Close()

	d.log.Tracef("Discord response status: %d", res.StatusCode)

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("unexpected status: %v body: %v", res.StatusCode, string(body))
	}

	return nil
}

func (d *discordSender) buildFooter(current, total int, client, runTime string) string {
	parts := []string{fmt.Sprintf("Client: %s", client), fmt.Sprintf("Run time: %s", runTime)}
	if total > 0 {
		parts = append([]string{fmt.Sprintf("%d/%d", current, total)}, parts...)
	}

	return strings.Join(parts, " | ")
}

// BuildField constructs a Field based on the provided action and build options.
func (d *discordSender) BuildField(action Action, opt BuildOptions) Field {
	t := opt.Torrent

	inlineFields := []DiscordEmbedsField{
		{Name: "ID", Value: fmt.Sprintf("%d", t.ID), Inline: true},
		{Name: "Progress", Value: format.Percent(t.Progress), Inline: true},
		{Name: "Peers", Value: fmt.Sprintf("%d", t.Peers), Inline: true},
		{Name: "Downloaded", Value: format.Bytes(t.DownloadedBytes), Inline: true},
	}

	switch action {
	case ActionPause:
		inlineFields = append(inlineFields, DiscordEmbedsField{Name: "Status", Value: "paused", Inline: true})
	case ActionResume:
		inlineFields = append(inlineFields, DiscordEmbedsField{Name: "Status", Value: "downloading", Inline: true})
	case ActionRemove:
		inlineFields = append(inlineFields, DiscordEmbedsField{Name: "Data", Value: map[bool]string{true: "deleted", false: "kept"}[opt.DeleteData], Inline: true})
	}

	if opt.Reason != "" {
		inlineFields = append(inlineFields, DiscordEmbedsField{
			Name:  "Reason",
			Value: escapeDiscordMarkdown(opt.Reason),
		})
	}

	jsonData, _ := json.Marshal(inlineFields)

	return Field{
		Name:  fmt.Sprintf("%s (%s)", t.Name, format.Bytes(t.TotalBytes)),
		Value: string(jsonData),
	}
}

func parseFieldValueToInlineFields(value string) []DiscordEmbedsField {
	var fields []DiscordEmbedsField
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return []DiscordEmbedsField{{Name: "Details", Value: value}}
	}

	return fields
}
