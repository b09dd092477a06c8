package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JeroenBertels/glh-timer/api"
	"github.com/JeroenBertels/glh-timer/client"
)

var ClientCmd = cobra.Command{
	Use: "client",
}

func init() {
	ClientCmd.PersistentFlags().String("endpoint", "", "")
	ClientCmd.PersistentFlags().String("login", "", "")
	ClientCmd.PersistentFlags().String("password", "", "")
	ClientCmd.PersistentFlags().String("state-dir", "", "")
	// Races.
	createRaceCmd := cobra.Command{
		Use:  "create-race",
		RunE: wrapClientMain(createRaceMain),
	}
	createRaceCmd.Flags().String("title", "", "")
	createRaceCmd.Flags().String("date", "", "")
	createRaceCmd.Flags().String("timezone", "", "")
	_ = createRaceCmd.MarkFlagRequired("title")
	_ = createRaceCmd.MarkFlagRequired("date")
	ClientCmd.AddCommand(&createRaceCmd)
	//
	createPartCmd := cobra.Command{
		Use:  "create-part",
		RunE: wrapClientMain(createPartMain),
	}
	createPartCmd.Flags().Int64("race", 0, "")
	createPartCmd.Flags().String("code", "", "")
	createPartCmd.Flags().String("title", "", "")
	createPartCmd.Flags().String("kind", "duration", "")
	createPartCmd.Flags().Int64("order", 0, "")
	_ = createPartCmd.MarkFlagRequired("race")
	_ = createPartCmd.MarkFlagRequired("code")
	_ = createPartCmd.MarkFlagRequired("title")
	ClientCmd.AddCommand(&createPartCmd)
	// Participants.
	createParticipantCmd := cobra.Command{
		Use:  "create-participant",
		RunE: wrapClientMain(createParticipantMain),
	}
	createParticipantCmd.Flags().Int64("race", 0, "")
	createParticipantCmd.Flags().Int64("bib", 0, "")
	createParticipantCmd.Flags().String("first-name", "", "")
	createParticipantCmd.Flags().String("last-name", "", "")
	createParticipantCmd.Flags().String("group", "", "")
	createParticipantCmd.Flags().String("club", "", "")
	createParticipantCmd.Flags().String("sex", "", "")
	_ = createParticipantCmd.MarkFlagRequired("race")
	_ = createParticipantCmd.MarkFlagRequired("bib")
	ClientCmd.AddCommand(&createParticipantCmd)
	// Timing.
	submitCmd := cobra.Command{
		Use:  "submit",
		RunE: wrapClientMain(submitMain),
	}
	submitCmd.Flags().Int64("race", 0, "")
	submitCmd.Flags().String("part", "", "")
	submitCmd.Flags().Int64("bib", 0, "")
	submitCmd.Flags().String("duration", "", "")
	submitCmd.Flags().Bool("offline", false, "")
	_ = submitCmd.MarkFlagRequired("race")
	_ = submitCmd.MarkFlagRequired("part")
	_ = submitCmd.MarkFlagRequired("bib")
	ClientCmd.AddCommand(&submitCmd)
	//
	flushCmd := cobra.Command{
		Use:  "flush",
		RunE: wrapClientMain(flushMain),
	}
	ClientCmd.AddCommand(&flushCmd)
	//
	startTimeCmd := cobra.Command{
		Use:  "start-time",
		RunE: wrapClientMain(startTimeMain),
	}
	startTimeCmd.Flags().Int64("race", 0, "")
	startTimeCmd.Flags().String("part", "", "")
	startTimeCmd.Flags().String("group", "", "")
	startTimeCmd.Flags().String("time", "now", "")
	_ = startTimeCmd.MarkFlagRequired("race")
	_ = startTimeCmd.MarkFlagRequired("part")
	ClientCmd.AddCommand(&startTimeCmd)
	// Results.
	resultsCmd := cobra.Command{
		Use:  "results",
		RunE: wrapClientMain(resultsMain),
	}
	resultsCmd.Flags().Int64("race", 0, "")
	resultsCmd.Flags().String("part", "", "")
	_ = resultsCmd.MarkFlagRequired("race")
	_ = resultsCmd.MarkFlagRequired("part")
	ClientCmd.AddCommand(&resultsCmd)
}

func createRaceMain(ctx *clientContext) error {
	title := must(ctx.Cmd.Flags().GetString("title"))
	date := must(ctx.Cmd.Flags().GetString("date"))
	timezone := must(ctx.Cmd.Flags().GetString("timezone"))
	race, err := ctx.Client.CreateRace(context.Background(), api.RaceForm{
		Title:    &title,
		Date:     &date,
		Timezone: &timezone,
	})
	if err != nil {
		return fmt.Errorf("unable to create race: %w", err)
	}
	fmt.Println("Created race with ID:", race.ID)
	return nil
}

func createPartMain(ctx *clientContext) error {
	race := must(ctx.Cmd.Flags().GetInt64("race"))
	code := must(ctx.Cmd.Flags().GetString("code"))
	title := must(ctx.Cmd.Flags().GetString("title"))
	kind := must(ctx.Cmd.Flags().GetString("kind"))
	order := must(ctx.Cmd.Flags().GetInt64("order"))
	part, err := ctx.Client.CreateRacePart(
		context.Background(), race, api.RacePartForm{
			Code:  &code,
			Title: &title,
			Kind:  &kind,
			Order: &order,
		},
	)
	if err != nil {
		return fmt.Errorf("unable to create part: %w", err)
	}
	fmt.Println("Created part with ID:", part.ID)
	return nil
}

func createParticipantMain(ctx *clientContext) error {
	race := must(ctx.Cmd.Flags().GetInt64("race"))
	bib := must(ctx.Cmd.Flags().GetInt64("bib"))
	firstName := must(ctx.Cmd.Flags().GetString("first-name"))
	lastName := must(ctx.Cmd.Flags().GetString("last-name"))
	group := must(ctx.Cmd.Flags().GetString("group"))
	club := must(ctx.Cmd.Flags().GetString("club"))
	sex := must(ctx.Cmd.Flags().GetString("sex"))
	participant, err := ctx.Client.CreateParticipant(
		context.Background(), race, api.ParticipantForm{
			BibNumber: &bib,
			FirstName: &firstName,
			LastName:  &lastName,
			Group:     &group,
			Club:      &club,
			Sex:       &sex,
		},
	)
	if err != nil {
		return fmt.Errorf("unable to create participant: %w", err)
	}
	fmt.Println("Created participant with ID:", participant.ID)
	return nil
}

// submitMain records timing measurement.
//
// With '--offline' flag the submission is stored locally
// without touching the network. Otherwise pending submissions
// are resent first and the new one is queued on failure.
func submitMain(ctx *clientContext) error {
	race := must(ctx.Cmd.Flags().GetInt64("race"))
	part := must(ctx.Cmd.Flags().GetString("part"))
	bib := must(ctx.Cmd.Flags().GetInt64("bib"))
	duration := must(ctx.Cmd.Flags().GetString("duration"))
	offline := must(ctx.Cmd.Flags().GetBool("offline"))
	queue, err := newSubmissionQueue(ctx, offline)
	if err != nil {
		return err
	}
	cmdCtx := context.Background()
	if !offline {
		if err := queue.Start(cmdCtx); err != nil {
			return err
		}
	}
	form := url.Values{}
	form.Set("bib_number", fmt.Sprint(bib))
	if duration != "" {
		form.Set("duration", duration)
	}
	outcome := queue.Submit(cmdCtx, client.Submission{
		URL: ctx.Endpoint + fmt.Sprintf(
			"/api/v0/races/%d/parts/%s/timing", race, part,
		),
		Method:        "POST",
		Body:          form.Encode(),
		ContentType:   "application/x-www-form-urlencoded",
		QueueEligible: true,
	})
	if outcome.Kind == client.OutcomeFailed {
		return outcome.Err
	}
	return nil
}

func flushMain(ctx *clientContext) error {
	queue, err := newSubmissionQueue(ctx, false)
	if err != nil {
		return err
	}
	return queue.Flush(context.Background())
}

func startTimeMain(ctx *clientContext) error {
	race := must(ctx.Cmd.Flags().GetInt64("race"))
	part := must(ctx.Cmd.Flags().GetString("part"))
	group := must(ctx.Cmd.Flags().GetString("group"))
	value := must(ctx.Cmd.Flags().GetString("time"))
	start, err := ctx.Client.UpsertStartTime(
		context.Background(), race, part, group, value,
	)
	if err != nil {
		return fmt.Errorf("unable to set start time: %w", err)
	}
	fmt.Println("Start time:", start.Time)
	return nil
}

func resultsMain(ctx *clientContext) error {
	race := must(ctx.Cmd.Flags().GetInt64("race"))
	part := must(ctx.Cmd.Flags().GetString("part"))
	results, err := ctx.Client.ObserveResults(
		context.Background(), race, part,
	)
	if err != nil {
		return fmt.Errorf("unable to get results: %w", err)
	}
	for _, row := range results.Rows {
		rank := "-"
		if row.Rank > 0 {
			rank = fmt.Sprint(row.Rank)
		}
		duration := row.Duration
		if duration == "" {
			duration = row.Note
		}
		fmt.Printf("%s\t%d\t%s\t%s\n", rank, row.BibNumber, row.Name, duration)
	}
	return nil
}

type clientContext struct {
	Cmd      *cobra.Command
	Args     []string
	Client   *api.Client
	Endpoint string
	StateDir string
}

// newSubmissionQueue creates queue with file backed storage.
func newSubmissionQueue(
	ctx *clientContext, offline bool,
) (*client.Queue, error) {
	if err := os.MkdirAll(ctx.StateDir, 0o755); err != nil {
		return nil, err
	}
	chime := &client.TerminalChime{}
	chime.Unlock()
	queue := client.NewQueue(
		client.NewFileStore(ctx.StateDir),
		ctx.Client,
		client.WriterNotifier{Writer: os.Stderr},
		chime,
		func() bool { return !offline },
	)
	return queue, nil
}

func wrapClientMain(fn func(*clientContext) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := clientContext{
			Cmd:  cmd,
			Args: args,
		}
		cfg, err := getConfig(cmd)
		if err != nil {
			return err
		}
		endpoint := must(cmd.Flags().GetString("endpoint"))
		if endpoint == "" {
			if cfg.Server.Port == 0 {
				cfg.Server.Port = 4281
			}
			endpoint = "http://" + cfg.Server.Address()
		}
		stateDir := must(cmd.Flags().GetString("state-dir"))
		if stateDir == "" {
			cacheDir, err := os.UserCacheDir()
			if err != nil {
				return err
			}
			stateDir = filepath.Join(cacheDir, "glh-timer")
		}
		ctx.Endpoint = endpoint
		ctx.StateDir = stateDir
		ctx.Client = api.NewClient(endpoint)
		login := must(cmd.Flags().GetString("login"))
		password := must(cmd.Flags().GetString("password"))
		if login != "" {
			_, err := ctx.Client.Login(
				context.Background(), login, password,
			)
			if err != nil {
				return fmt.Errorf("unable to login: %w", err)
			}
		}
		return fn(&ctx)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
