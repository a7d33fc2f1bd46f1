package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillstack/pkg/config"
	"github.com/jingkaihe/skillstack/pkg/defaults"
	"github.com/jingkaihe/skillstack/pkg/logger"
	"github.com/jingkaihe/skillstack/pkg/presenter"
	"github.com/jingkaihe/skillstack/pkg/resolver"
	"github.com/jingkaihe/skillstack/pkg/selections"
	"github.com/jingkaihe/skillstack/pkg/telemetry"
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	Stack        string
	Saved        string
	ProjectDir   string
	JSON         bool
	ShowAgents   bool
	Watch        bool
	DebounceTime int
}

// NewValidateConfig creates a ValidateConfig with default values
func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		ProjectDir:   ".",
		DebounceTime: 300,
	}
}

// Validate validates the ValidateConfig
func (c *ValidateConfig) Validate() error {
	if c.Stack != "" && c.Saved != "" {
		return errors.New("--stack and --saved cannot be combined")
	}
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate [skills...]",
	Short: "Validate a skill selection",
	Long: `Validate a selection of skills against the matrix: conflicts, missing
requirements and exclusive categories are errors; missing recommendations and
setup skills are warnings.

The selection is built from a stack or saved selection plus any skills given
as arguments. Without either, the project's .skillstack/selection.yaml is used.
Exits with status 1 when the selection has errors.

Examples:
  skillstack validate react zustand vitest
  skillstack validate --stack react-spa jest
  skillstack validate --saved frontend --json
  skillstack validate --watch`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getValidateConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid flags")
			os.Exit(1)
		}

		if config.Watch {
			if err := runValidateWatch(ctx, args, config); err != nil {
				presenter.Error(err, "Watch failed")
				os.Exit(1)
			}
			return
		}

		result, err := validateOnce(ctx, args, config)
		if err != nil {
			presenter.Error(err, "Validation failed")
			os.Exit(1)
		}
		if !result.Valid {
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().StringP("stack", "s", defaults.Stack, "Start from a suggested stack")
	validateCmd.Flags().String("saved", defaults.Saved, "Start from a saved selection")
	validateCmd.Flags().String("project", defaults.ProjectDir, "Project directory holding .skillstack/selection.yaml")
	validateCmd.Flags().Bool("json", defaults.JSON, "Print the report as JSON")
	validateCmd.Flags().Bool("agents", defaults.ShowAgents, "Show which agent receives each skill")
	validateCmd.Flags().BoolP("watch", "w", defaults.Watch, "Re-validate whenever the matrix, local skills or project selection change")
	validateCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

func getValidateConfigFromFlags(cmd *cobra.Command) *ValidateConfig {
	config := NewValidateConfig()
	if stack, err := cmd.Flags().GetString("stack"); err == nil {
		config.Stack = stack
	}
	if saved, err := cmd.Flags().GetString("saved"); err == nil {
		config.Saved = saved
	}
	if project, err := cmd.Flags().GetString("project"); err == nil {
		config.ProjectDir = project
	}
	if asJSON, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = asJSON
	}
	if showAgents, err := cmd.Flags().GetBool("agents"); err == nil {
		config.ShowAgents = showAgents
	}
	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounce
	}
	return config
}

// collectSelection builds the selection to validate: stack or saved
// selection first, then the arguments. With neither, the project file is read.
func collectSelection(ctx context.Context, env *appEnv, args []string, config *ValidateConfig) ([]string, error) {
	selection := []string{}

	switch {
	case config.Stack != "":
		stackSkills, ok := env.resolver.ExpandStack(config.Stack)
		if !ok {
			return nil, errors.Errorf("unknown stack %q", config.Stack)
		}
		selection = append(selection, stackSkills...)
	case config.Saved != "":
		store, err := openStore(ctx, env.cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		saved, err := store.Get(ctx, config.Saved)
		if err != nil {
			return nil, err
		}
		selection = append(selection, saved.Skills...)
	case len(args) == 0:
		project, err := selections.ReadProject(config.ProjectDir)
		if err != nil {
			return nil, err
		}
		selection = append(selection, project.Skills...)
	}

	return append(selection, splitSkills(args)...), nil
}

// ValidateReport is the JSON form of a validation run
type ValidateReport struct {
	*resolver.ValidationResult
	Skills  []string            `json:"skills"`
	Unknown []string            `json:"unknown,omitempty"`
	Agents  map[string][]string `json:"agents,omitempty"`
}

func buildReport(env *appEnv, selection []string, mappings *defaults.Mappings) *ValidateReport {
	report := &ValidateReport{
		ValidationResult: env.resolver.Validate(selection),
		Skills:           env.resolver.Canonical(selection),
		Unknown:          unknownSkills(env.resolver, selection),
	}
	if mappings != nil {
		report.Agents = mappings.Partition(env.matrix(), report.Skills)
	}
	return report
}

func validateOnce(ctx context.Context, args []string, config *ValidateConfig) (*resolver.ValidationResult, error) {
	env, err := loadEnv(ctx)
	if err != nil {
		return nil, err
	}

	selection, err := collectSelection(ctx, env, args, config)
	if err != nil {
		return nil, err
	}
	if len(selection) == 0 {
		return nil, errors.New("nothing to validate: pass skills, --stack, --saved or create .skillstack/selection.yaml")
	}

	var mappings *defaults.Mappings
	if config.ShowAgents || config.JSON {
		if mappings, err = loadMappings(env.cfg); err != nil {
			return nil, err
		}
	}

	var report *ValidateReport
	_ = telemetry.WithSpan(ctx, "selection.validate", func(ctx context.Context) error {
		report = buildReport(env, selection, mappings)
		telemetry.SetAttributes(ctx,
			attribute.Int("selection.size", len(report.Skills)),
			attribute.Int("selection.errors", len(report.Errors)),
			attribute.Int("selection.warnings", len(report.Warnings)),
		)
		return nil
	})

	logger.G(ctx).WithField("skills", report.Skills).WithField("valid", report.Valid).Debug("validated selection")

	if config.JSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode report")
		}
		fmt.Println(string(data))
		return report.ValidationResult, nil
	}

	for _, ref := range report.Unknown {
		presenter.Warning(fmt.Sprintf("Unknown skill %q is ignored", ref))
	}
	presenter.Report(report.ValidationResult)
	if config.ShowAgents {
		printPartition(report.Agents)
	}
	return report.ValidationResult, nil
}

func printPartition(partition map[string][]string) {
	if len(partition) == 0 {
		return
	}
	presenter.Section("Agents")
	for _, agent := range defaults.Agents(partition) {
		presenter.Info(fmt.Sprintf("%s: %s", agent, strings.Join(partition[agent], ", ")))
	}
}

// watchTargets lists the paths whose changes trigger re-validation. Parent
// directories are watched for files so that editors replacing the file on
// save are still noticed.
func watchTargets(cfg *config.Config, config *ValidateConfig) (dirs []string, files map[string]bool) {
	files = make(map[string]bool)
	addFile := func(path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		files[abs] = true
		dirs = append(dirs, filepath.Dir(abs))
	}

	addFile(cfg.MatrixFile)
	addFile(cfg.AgentMappings)
	addFile(selections.ProjectPath(config.ProjectDir))

	if cfg.LocalSkillsDir != "" {
		if abs, err := filepath.Abs(cfg.LocalSkillsDir); err == nil {
			_ = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
				if err == nil && info.IsDir() {
					dirs = append(dirs, path)
				}
				return nil
			})
		}
	}
	return dirs, files
}

// relevant reports whether an event touches a watched file or a SKILL.md
func relevant(event fsnotify.Event, files map[string]bool) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return files[event.Name] || filepath.Base(event.Name) == "SKILL.md"
}

func runValidateWatch(ctx context.Context, args []string, config *ValidateConfig) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfgEnv, err := loadEnv(ctx)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	dirs, files := watchTargets(cfgEnv.cfg, config)
	watched := make(map[string]bool)
	for _, dir := range dirs {
		if watched[dir] {
			continue
		}
		if _, statErr := os.Stat(dir); statErr != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.G(ctx).WithError(err).WithField("directory", dir).Warn("failed to watch directory")
			continue
		}
		watched[dir] = true
	}

	rerun := func() {
		presenter.Separator()
		if _, err := validateOnce(ctx, args, config); err != nil {
			presenter.Error(err, "Validation failed")
		}
	}
	rerun()
	presenter.Info("Watching for changes, press Ctrl+C to stop")

	debounce := time.Duration(config.DebounceTime) * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, files) {
				continue
			}
			logger.G(ctx).WithField("file", event.Name).WithField("operation", event.Op.String()).Debug("change detected")
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			rerun()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Error("error watching files")
		case <-ctx.Done():
			presenter.Info("Stopped watching")
			return nil
		}
	}
}
