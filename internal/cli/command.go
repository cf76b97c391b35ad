package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lyricconv/internal/config"
	"lyricconv/internal/lyrics"
	"lyricconv/pkg/chinese"
	"lyricconv/pkg/fileutil"
	"lyricconv/pkg/generator"
	"lyricconv/pkg/textio"
)

// Version 构建时可通过 -ldflags 覆盖
var Version = "dev"

// runner 各子命令共享的配置与服务
type runner struct {
	flags   *Flags
	cfg     *config.Config
	svc     *lyrics.Service
	cleanup func()
}

// CreateRootCommand 创建根命令及全部子命令
func CreateRootCommand(flags *Flags) *cobra.Command {
	r := &runner{flags: flags}
	rootCmd := &cobra.Command{
		Use:   "lyricconv",
		Short: "Convert lyrics between timed lyric formats",
		Long: `lyricconv converts synced lyrics between LRC, enhanced LRC, QRC, YRC, KRC,
Lyricify Syllable/Lines/Quick Export, SPL, ASS, TTML and JSON.

Examples:
  lyricconv convert song.qrc -t ttml -o song.ttml
  lyricconv merge song.yrc song.tlyric.lrc -t ttml --apple
  lyricconv batch *.lrc -t ttml --out-dir converted
  lyricconv inspect song.ttml --yaml`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: r.setup,
		PersistentPostRun: r.teardown,
	}

	rootCmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/lyrics/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newConvertCommand(r),
		newMergeCommand(r),
		newBatchCommand(r),
		newInspectCommand(r),
		newFormatsCommand(),
		newPreviewCommand(r),
	)
	return rootCmd
}

func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	if r.flags.CfgFile != "" {
		cfg, err := config.LoadFrom(r.flags.CfgFile)
		if err != nil {
			return err
		}
		r.cfg = cfg
	} else {
		r.cfg = config.Load()
	}
	SetupLogging(cmd.ErrOrStderr(), r.cfg.App.LogLevel, r.flags.Verbose)
	return nil
}

func (r *runner) teardown(*cobra.Command, []string) {
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
}

// service 首次使用时创建
func (r *runner) service(ctx context.Context) (*lyrics.Service, error) {
	if r.svc != nil {
		return r.svc, nil
	}
	svc, cleanup, err := lyrics.New(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	r.svc, r.cleanup = svc, cleanup
	return svc, nil
}

// buildRequest 以配置为默认值，命令行显式给出的参数优先
func (r *runner) buildRequest(cmd *cobra.Command, input string) (*lyrics.Request, error) {
	req, err := lyrics.RequestDefaults(r.cfg.Convert)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	f, fl := r.flags, cmd.Flags()

	text, err := textio.ReadFile(input)
	if err != nil {
		return nil, err
	}
	req.Name = input
	req.Input = text
	req.SourceFormat = f.From.Format()
	if to := f.To.Format(); to != "" {
		req.TargetFormat = to
	}

	if fl.Changed("lrc-strategy") {
		if req.LRCStrategy, err = lyrics.ParseLRCStrategy(f.LRCStrategy); err != nil {
			return nil, err
		}
	}
	if req.Metadata, err = parseMetadata(f.Metadata); err != nil {
		return nil, err
	}
	if fl.Changed("strip-credits") {
		req.Strip.Enabled = f.StripCredits
	}
	if len(f.StripPatterns) > 0 {
		req.Strip.Enabled = true
		req.Strip.Patterns = slices.Concat(req.Strip.Patterns, f.StripPatterns)
	}

	if f.Translation != "" {
		if req.Translation, err = textio.ReadFile(f.Translation); err != nil {
			return nil, fmt.Errorf("translation: %w", err)
		}
		req.TranslationFormat = f.TranslationFormat.Format()
	}
	if f.TranslationLanguage != "" {
		req.TranslationLanguage = f.TranslationLanguage
		req.Options.TranslationLanguage = f.TranslationLanguage
	}
	if f.Romanization != "" {
		if req.Romanization, err = textio.ReadFile(f.Romanization); err != nil {
			return nil, fmt.Errorf("romanization: %w", err)
		}
		req.RomanizationFormat = f.RomanizationFormat.Format()
	}
	if f.ToleranceMS > 0 {
		req.ToleranceMS = f.ToleranceMS
	}

	if fl.Changed("timing") {
		if req.Options.TimingMode, err = generator.ParseTimingMode(f.TimingMode); err != nil {
			return nil, err
		}
	}
	if fl.Changed("apple") {
		req.Options.AppleFormat = f.Apple
	}
	if fl.Changed("indent") {
		req.Options.Indent = f.Indent
	}
	if fl.Changed("split") {
		req.Options.AutoWordSplitting = f.Split
	}

	if f.TranslateTo != "" {
		req.MachineTranslateTo = f.TranslateTo
		req.SourceLanguage = f.SourceLanguage
	}
	if fl.Changed("chinese") {
		if req.ChineseConversion, err = chinese.ParseConversion(f.Chinese); err != nil {
			return nil, err
		}
	}
	if req.ChineseTarget, err = parseChineseTarget(f.ChineseTarget); err != nil {
		return nil, err
	}
	req.NoCache = f.NoCache
	return req, nil
}

// writeOutput 路径为空或 "-" 时写到标准输出
func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := fileutil.WriteFileOverwrite(path, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.GreenString("wrote"), path)
	return nil
}

func printWarnings(cmd *cobra.Command, name string, warnings []string) {
	warn := color.New(color.FgYellow)
	for _, w := range warnings {
		if name != "" {
			warn.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", name, w)
		} else {
			warn.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
	}
}

func newConvertCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert one lyric file",
		Long:  `Convert one lyric file. Use "-" to read from stdin; output goes to stdout unless -o is given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runConvert(cmd, args[0])
		},
	}
	addSourceFlags(cmd.Flags(), r.flags)
	addMergeFlags(cmd.Flags(), r.flags)
	addOutputFlags(cmd.Flags(), r.flags)
	cmd.Flags().StringVarP(&r.flags.Output, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

func (r *runner) runConvert(cmd *cobra.Command, input string) error {
	req, err := r.buildRequest(cmd, input)
	if err != nil {
		return err
	}
	svc, err := r.service(cmd.Context())
	if err != nil {
		return err
	}
	res, err := svc.Convert(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	printWarnings(cmd, "", res.Warnings)
	return writeOutput(cmd, r.flags.Output, res.Output)
}

func newMergeCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <main> <translation> [romanization]",
		Short: "Merge translation and romanization files into a main lyric",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.flags.Translation = args[1]
			if len(args) == 3 {
				r.flags.Romanization = args[2]
			}
			return r.runConvert(cmd, args[0])
		},
	}
	addSourceFlags(cmd.Flags(), r.flags)
	cmd.Flags().Var(&r.flags.TranslationFormat, "translation-format", "translation file format (detected when empty)")
	cmd.Flags().StringVar(&r.flags.TranslationLanguage, "translation-lang", "", "language tag of the translation")
	cmd.Flags().Var(&r.flags.RomanizationFormat, "romanization-format", "romanization file format (detected when empty)")
	cmd.Flags().Uint64Var(&r.flags.ToleranceMS, "tolerance", 0, "timestamp match tolerance in ms")
	addOutputFlags(cmd.Flags(), r.flags)
	cmd.Flags().StringVarP(&r.flags.Output, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

// Execute 供 main 调用
func Execute() {
	if err := CreateRootCommand(NewFlags()).Execute(); err != nil {
		os.Exit(1)
	}
}
