package presentation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/bot"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// queuePageSize is the number of queue entries shown per page.
const queuePageSize = 10

// elevatedPermissions are the guild permissions that always grant session
// control, regardless of ownership.
const elevatedPermissions = discordgo.PermissionAdministrator | discordgo.PermissionManageChannels

// Handlers holds all the command handlers.
type Handlers struct {
	pool               *usecases.Pool
	resolver           *usecases.Resolver
	voiceState         ports.VoiceStateProvider
	voteSkipRatio      float64
	privilegeThreshold int
}

// NewHandlers creates new Handlers.
func NewHandlers(
	pool *usecases.Pool,
	resolver *usecases.Resolver,
	voiceState ports.VoiceStateProvider,
	voteSkipRatio float64,
	privilegeThreshold int,
) *Handlers {
	return &Handlers{
		pool:               pool,
		resolver:           resolver,
		voiceState:         voiceState,
		voteSkipRatio:      voteSkipRatio,
		privilegeThreshold: privilegeThreshold,
	}
}

// HandleJoin handles the /join command.
func (h *Handlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, userID, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if existing := h.pool.Get(guildID); existing != nil && existing.Connected() {
		return respondError(r, usecases.ErrAlreadyConnected.Error())
	}

	var explicit *snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			if id, err := snowflake.Parse(opt.ChannelValue(s).ID); err == nil {
				explicit = &id
			}
		}
	}

	player, err := h.connectSession(context.Background(), guildID, userID, explicit)
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondMessage(r, fmt.Sprintf("Connected to <#%d>.", player.ChannelID()))
}

// HandleLeave handles the /leave command.
func (h *Handlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, userID, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	player := h.pool.Get(guildID)
	if player == nil || !player.Connected() {
		return respondError(r, usecases.ErrNotConnected.Error())
	}
	if err := h.requireSameChannel(player, guildID, userID); err != nil {
		return respondError(r, err.Error())
	}
	if err := h.requirePrivilege(player, i, userID); err != nil {
		return respondError(r, err.Error())
	}

	if err := player.Disconnect(context.Background()); err != nil {
		return respondError(r, err.Error())
	}

	return respondMessage(r, "Disconnected.")
}

// HandlePlay handles the /play command.
func (h *Handlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, userID, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	player, err := h.connectSession(ctx, guildID, userID, nil)
	if err != nil {
		return respondError(r, err.Error())
	}

	resolution, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		return respondError(r, err.Error())
	}

	if resolution.Playlist != nil {
		if err := player.AddPlaylist(ctx, resolution.Playlist); err != nil {
			return respondError(r, err.Error())
		}
		return respondMessage(r, fmt.Sprintf(
			"Added **%s** (%d tracks) to the queue.",
			resolution.Playlist.Title,
			len(resolution.Playlist.Items),
		))
	}

	if err := player.AddTrack(ctx, resolution.Item); err != nil {
		return respondError(r, err.Error())
	}
	return respondMessage(r, fmt.Sprintf(
		"Added **%s** [%s] to the queue.",
		resolution.Item.Title,
		resolution.Item.FormattedDuration(),
	))
}

// HandlePlayFile handles the /playfile command.
func (h *Handlers) HandlePlayFile(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, userID, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	var file string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "file" {
			file = opt.StringValue()
		}
	}

	player, err := h.connectSession(ctx, guildID, userID, nil)
	if err != nil {
		return respondError(r, err.Error())
	}

	item, err := h.resolver.ResolveLocal(ctx, file)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := player.AddTrack(ctx, item); err != nil {
		return respondError(r, err.Error())
	}
	return respondMessage(r, fmt.Sprintf(
		"Added **%s** [%s] to the queue.",
		item.Title,
		item.FormattedDuration(),
	))
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	player, err := h.controlSession(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := player.Skip(context.Background()); err != nil {
		return respondError(r, err.Error())
	}
	return respondMessage(r, "Skipped.")
}

// HandleVoteSkip handles the /voteskip command. Unlike /skip it is open to
// every channel occupant and skips once the quorum is reached.
func (h *Handlers) HandleVoteSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, userID, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	player := h.pool.Get(guildID)
	if player == nil || !player.Connected() {
		return respondError(r, usecases.ErrNotConnected.Error())
	}
	if err := h.requireSameChannel(player, guildID, userID); err != nil {
		return respondError(r, err.Error())
	}

	required := usecases.RequiredVotes(player.NonBotOccupantCount(), h.voteSkipRatio)
	tally, err := player.VoteSkip(context.Background(), userID, required)
	if err != nil {
		return respondError(r, err.Error())
	}

	if tally == 0 {
		return respondMessage(r, "Your skip vote was withdrawn.")
	}
	if tally >= required {
		return respondMessage(r, "Vote passed, skipping.")
	}
	return respondMessage(r, fmt.Sprintf("Skip votes: %d/%d.", tally, required))
}

// HandlePause handles the /pause command.
func (h *Handlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	player, err := h.controlSession(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := player.Pause(context.Background()); err != nil {
		return respondError(r, err.Error())
	}
	return respondMessage(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *Handlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	player, err := h.controlSession(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := player.Resume(context.Background()); err != nil {
		return respondError(r, err.Error())
	}
	return respondMessage(r, "Resumed playback.")
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	player, err := h.controlSession(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := player.Stop(context.Background()); err != nil {
		return respondError(r, err.Error())
	}
	return respondMessage(r, "Stopped playback and cleared the queue.")
}

// HandleShuffle handles the /shuffle command.
func (h *Handlers) HandleShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	player, err := h.controlSession(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := player.Shuffle(); err != nil {
		return respondError(r, err.Error())
	}
	return respondMessage(r, "Shuffled the queue.")
}

// HandleLoop handles the /loop command.
func (h *Handlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	player, err := h.controlSession(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	looping, err := player.ToggleLoop()
	if err != nil {
		return respondError(r, err.Error())
	}

	if looping {
		return respondMessage(r, "Looping enabled for the current track.")
	}
	return respondMessage(r, "Looping disabled.")
}

// HandleQueue handles the /queue command.
func (h *Handlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, _, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	player := h.pool.Get(guildID)
	if player == nil || !player.Connected() {
		return respondError(r, usecases.ErrNotConnected.Error())
	}

	page := 1
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	snapshot := player.Snapshot()
	if snapshot.Current == nil && len(snapshot.Queue) == 0 {
		return respondError(r, usecases.ErrNoTracksLeft.Error())
	}

	return respondQueueList(r, snapshot, page)
}

// HandleNowPlaying handles the /nowplaying command.
func (h *Handlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, _, err := parseInvocation(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	player := h.pool.Get(guildID)
	if player == nil || !player.Connected() {
		return respondError(r, usecases.ErrNotConnected.Error())
	}

	snapshot := player.Snapshot()
	if snapshot.Current == nil {
		return respondError(r, usecases.ErrNotPlaying.Error())
	}

	return respondNowPlaying(r, snapshot)
}

// connectSession returns the guild's connected session, creating and
// connecting one to the invoker's channel (or the explicit channel) when
// necessary. An invoker outside the session's channel is rejected.
func (h *Handlers) connectSession(
	ctx context.Context,
	guildID, userID snowflake.ID,
	explicit *snowflake.ID,
) (*usecases.Player, error) {
	player := h.pool.GetOrCreate(guildID)

	if player.Connected() {
		if err := h.requireSameChannel(player, guildID, userID); err != nil {
			return nil, err
		}
		return player, nil
	}

	target := explicit
	if target == nil {
		channel, err := h.voiceState.GetUserVoiceChannel(guildID, userID)
		if err != nil {
			return nil, err
		}
		if channel == nil {
			return nil, usecases.ErrUserNotConnected
		}
		target = channel
	}

	if err := player.Connect(ctx, *target, userID); err != nil {
		return nil, err
	}
	return player, nil
}

// controlSession applies the common guards for owner-only playback controls:
// a live session, the invoker in its channel, and session privilege.
func (h *Handlers) controlSession(i *discordgo.InteractionCreate) (*usecases.Player, error) {
	guildID, userID, err := parseInvocation(i)
	if err != nil {
		return nil, err
	}

	player := h.pool.Get(guildID)
	if player == nil || !player.Connected() {
		return nil, usecases.ErrNotConnected
	}
	if err := h.requireSameChannel(player, guildID, userID); err != nil {
		return nil, err
	}
	if err := h.requirePrivilege(player, i, userID); err != nil {
		return nil, err
	}
	return player, nil
}

func (h *Handlers) requireSameChannel(
	player *usecases.Player,
	guildID, userID snowflake.ID,
) error {
	channel, err := h.voiceState.GetUserVoiceChannel(guildID, userID)
	if err != nil {
		return err
	}
	if channel == nil {
		return usecases.ErrUserNotConnected
	}
	if *channel != player.ChannelID() {
		return usecases.ErrNotSameChannel
	}
	return nil
}

func (h *Handlers) requirePrivilege(
	player *usecases.Player,
	i *discordgo.InteractionCreate,
	userID snowflake.ID,
) error {
	hasElevated := i.Member != nil && i.Member.Permissions&elevatedPermissions != 0

	privileged := usecases.IsPrivileged(
		userID,
		player.Owner(),
		hasElevated,
		player.NonBotOccupantCount(),
		h.privilegeThreshold,
	)
	if !privileged {
		return usecases.ErrNotPrivileged
	}
	return nil
}

func parseInvocation(i *discordgo.InteractionCreate) (snowflake.ID, snowflake.ID, error) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid guild")
	}

	if i.Member == nil || i.Member.User == nil {
		return 0, 0, fmt.Errorf("invalid user")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid user")
	}

	return guildID, userID, nil
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondMessage(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondQueueList(r bot.Responder, snapshot usecases.Snapshot, page int) error {
	var sb strings.Builder

	if snapshot.Current != nil {
		fmt.Fprintf(&sb, "**Now playing:** %s [%s]\n\n",
			snapshot.Current.Title,
			snapshot.Current.FormattedDuration(),
		)
	}

	total := len(snapshot.Queue)
	if total == 0 {
		sb.WriteString("The queue is empty.")
	} else {
		pages := (total + queuePageSize - 1) / queuePageSize
		if page < 1 {
			page = 1
		}
		if page > pages {
			page = pages
		}
		start := (page - 1) * queuePageSize
		end := min(start+queuePageSize, total)

		for idx := start; idx < end; idx++ {
			item := snapshot.Queue[idx]
			fmt.Fprintf(&sb, "%d. %s [%s]\n", idx+1, item.Title, item.FormattedDuration())
		}
		fmt.Fprintf(&sb, "\n%d track(s) queued (%s). Page %d/%d.",
			total, formatDuration(snapshot.QueueDuration), page, pages)
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Queue",
					Description: sb.String(),
					Color:       colorSuccess,
				},
			},
		},
	})
}

// formatDuration renders a duration as mm:ss or hh:mm:ss.
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	if total >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func respondNowPlaying(r bot.Responder, snapshot usecases.Snapshot) error {
	current := snapshot.Current

	description := fmt.Sprintf("**%s** [%s]", current.Title, current.FormattedDuration())
	if snapshot.Loop {
		description += "\nLooping is enabled."
	}
	if snapshot.State == usecases.StatePaused {
		description += "\nPlayback is paused."
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: description,
		Color:       colorSuccess,
	}
	if current.URI != "" {
		embed.URL = current.URI
	}
	if current.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: current.ArtworkURL}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}
