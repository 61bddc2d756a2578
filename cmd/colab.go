package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/colab"
	"github.com/frahmantamala/travel-agency/internal/core/events"
	"github.com/frahmantamala/travel-agency/internal/dossierclient"
	"github.com/frahmantamala/travel-agency/pkg/logger"
)

type colabFlags struct {
	apiURL        string
	token         string
	email         string
	password      string
	set           []string
	unset         []string
	billingClient int64
	output        string
	timeout       time.Duration

	suggestionTimeout time.Duration
	writeTimeout      time.Duration
}

var colabOpts colabFlags

var colabCmd = &cobra.Command{
	Use:   "colab",
	Short: "Inspect and reconcile dossier collaborators",
	Long:  `Inspect and reconcile dossier collaborators against a running dossier API.`,
}

var colabShowCmd = &cobra.Command{
	Use:   "show <dossier-id>",
	Short: "Show eligible users, suggestions and current assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runColab(cmd, args[0], false, false)
	},
}

var colabPlanCmd = &cobra.Command{
	Use:   "plan <dossier-id>",
	Short: "Print the writes needed to reach the requested selection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runColab(cmd, args[0], true, false)
	},
}

var colabApplyCmd = &cobra.Command{
	Use:   "apply <dossier-id>",
	Short: "Apply the requested selection to the dossier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runColab(cmd, args[0], true, true)
	},
}

func init() {
	flags := colabCmd.PersistentFlags()
	flags.StringVar(&colabOpts.apiURL, "api-url", "http://localhost:8080/api/v1", "dossier API base URL")
	flags.StringVar(&colabOpts.token, "token", "", "access token (skips login)")
	flags.StringVar(&colabOpts.email, "email", "", "login email")
	flags.StringVar(&colabOpts.password, "password", "", "login password")
	flags.StringArrayVar(&colabOpts.set, "set", nil, "module=user to activate, module being an ID or a name (repeatable)")
	flags.StringArrayVar(&colabOpts.unset, "unset", nil, "module to deactivate (repeatable)")
	flags.Int64Var(&colabOpts.billingClient, "billing-client", 0, "recompute suggestions for another billing client")
	flags.StringVarP(&colabOpts.output, "output", "o", "table", "output format: table or json")
	flags.DurationVar(&colabOpts.timeout, "timeout", 30*time.Second, "overall timeout")
	flags.DurationVar(&colabOpts.suggestionTimeout, "suggestion-timeout", 3*time.Second, "timeout of each suggestion lookup")
	flags.DurationVar(&colabOpts.writeTimeout, "write-timeout", 10*time.Second, "timeout of each assignment write")

	colabCmd.AddCommand(colabShowCmd, colabPlanCmd, colabApplyCmd)
}

func runColab(cmd *cobra.Command, rawID string, withIntents, apply bool) error {
	dossierID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || dossierID <= 0 {
		return fmt.Errorf("invalid dossier id %q", rawID)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), colabOpts.timeout)
	defer cancel()

	client, err := newDossierClient(ctx, colabOpts)
	if err != nil {
		return err
	}

	log := logger.L()
	bus := events.NewEventBus(log)
	events.RegisterAuditLog(bus, log)
	service := colab.NewService(client, client, client, client, events.SyncPublisher{Bus: bus}, colabServiceConfig(colabOpts), log)

	session, err := service.Prepare(ctx, dossierID)
	if err != nil {
		return err
	}

	if colabOpts.billingClient > 0 {
		if err := session.ChangeBillingClient(ctx, colabOpts.billingClient); err != nil {
			return err
		}
	}

	if withIntents {
		intents, err := parseIntents(session.Roster, colabOpts.set, colabOpts.unset)
		if err != nil {
			return err
		}
		if err := session.ApplyIntents(intents); err != nil {
			return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case apply:
		ops := session.Plan()
		result, err := service.Submit(ctx, session)
		if printErr := printApply(out, colabOpts.output, ops, result); printErr != nil {
			return printErr
		}
		return err
	case withIntents:
		return printPlan(out, colabOpts.output, session.Plan())
	default:
		return printSession(out, colabOpts.output, session)
	}
}

func colabServiceConfig(opts colabFlags) colab.ServiceConfig {
	return colab.ServiceConfig{
		SuggestionTimeout: opts.suggestionTimeout,
		WriteTimeout:      opts.writeTimeout,
	}
}

func newDossierClient(ctx context.Context, opts colabFlags) (*dossierclient.Client, error) {
	client := dossierclient.NewClient(dossierclient.Config{BaseURL: opts.apiURL, Token: opts.token}, logger.L())
	if opts.token != "" {
		return client, nil
	}
	if opts.email == "" {
		return nil, errors.New("either --token or --email/--password is required")
	}
	token, err := client.Login(ctx, opts.email, opts.password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return client.WithToken(token), nil
}

// parseIntents turns --set/--unset flags into operator intents. Deactivations
// are replayed after activations.
func parseIntents(roster *colab.Roster, set, unset []string) ([]colab.Intent, error) {
	intents := make([]colab.Intent, 0, len(set)+len(unset))
	for _, raw := range set {
		ref, rawUser, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q, expected module=user", raw)
		}
		module, ok := roster.Find(ref)
		if !ok {
			return nil, fmt.Errorf("unknown module %q", ref)
		}
		intent := colab.Intent{ModuleID: module.ID, Active: true}
		if rawUser = strings.TrimSpace(rawUser); rawUser != "" {
			userID, err := strconv.ParseInt(rawUser, 10, 64)
			if err != nil || userID <= 0 {
				return nil, fmt.Errorf("invalid user id %q for module %q", rawUser, ref)
			}
			intent.UserID = &userID
		}
		intents = append(intents, intent)
	}
	for _, ref := range unset {
		module, ok := roster.Find(ref)
		if !ok {
			return nil, fmt.Errorf("unknown module %q", ref)
		}
		intents = append(intents, colab.Intent{ModuleID: module.ID, Active: false})
	}
	return intents, nil
}

func printSession(w io.Writer, format string, session *colab.Session) error {
	if format == "json" {
		return writeJSON(w, colab.NewSessionResponse(session))
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "dossier %d, billing client %d\n", session.DossierID, session.Snapshot.BillingClientID)
	fmt.Fprintln(tw, "MODULE\tELIGIBLE\tSUGGESTED\tDEFAULT\tCURRENT\tSELECTED")
	for _, d := range session.Defaults() {
		fmt.Fprintf(tw, "%d %s\t%d\t%s\t%s\t%s\t%s\n",
			d.Module.ID, d.Module.Name, len(d.Users),
			optionalID(d.SuggestedUserID), optionalID(d.DefaultUserID),
			optionalID(d.CurrentUserID), optionalID(d.SelectedUserID))
	}
	return tw.Flush()
}

func printPlan(w io.Writer, format string, ops []colab.Op) error {
	if format == "json" {
		return writeJSON(w, ops)
	}
	if len(ops) == 0 {
		_, err := fmt.Fprintln(w, "nothing to do")
		return err
	}
	for _, op := range ops {
		if _, err := fmt.Fprintln(w, op.String()); err != nil {
			return err
		}
	}
	return nil
}

func printApply(w io.Writer, format string, ops []colab.Op, result *colab.BatchResult) error {
	if format == "json" {
		return writeJSON(w, colab.ApplyResponse{Ops: ops, Result: result})
	}
	if result == nil {
		return printPlan(w, format, ops)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "batch %s\n", result.BatchID)
	for _, o := range result.Outcomes {
		status := "ok"
		if !o.Succeeded() {
			status = "failed: " + o.Error
		}
		fmt.Fprintf(tw, "%s\t%s\n", o.Op.String(), status)
	}
	fmt.Fprintf(tw, "%d/%d failed\n", result.Failed(), len(result.Outcomes))
	return tw.Flush()
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
