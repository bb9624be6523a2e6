package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/text"
	"github.com/mrnavastar/yagua/api"
	"github.com/mrnavastar/yagua/services"
	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/config"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"golang.org/x/mod/semver"
)

func setup(c *cli.Context) (*services.Launcher, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if root := c.String("root"); root != "" {
		cfg.GameRoot = root
	}
	if c.Bool("debug") || cfg.Debug {
		pterm.EnableDebugMessages()
	}
	return services.New(cfg)
}

// newerOrEqual compares dotted game versions, treating ids that are not
// version numbers as always passing.
func newerOrEqual(id string, floor string) bool {
	if floor == "" {
		return true
	}
	v, m := "v"+id, "v"+floor
	if !semver.IsValid(v) || !semver.IsValid(m) {
		return true
	}
	return semver.Compare(v, m) >= 0
}

func install(l *services.Launcher, id string) error {
	var bar *pterm.ProgressbarPrinter
	err := l.Install(id, func(p services.Progress) {
		switch p.Stage {
		case services.StageAssets:
			if bar == nil && p.Total > 0 {
				bar, _ = pterm.DefaultProgressbar.WithTotal(p.Total).WithTitle("Assets " + p.Message).Start()
			}
			if bar != nil && p.Done > bar.Current {
				bar.Add(p.Done - bar.Current)
			}
		case services.StageDone:
		default:
			pterm.Info.Println("Installing " + string(p.Stage) + " " + p.Message)
		}
	})
	if bar != nil {
		bar.Stop()
	}
	if err != nil {
		return err
	}
	pterm.Success.Println("Installed " + id)
	return nil
}

func session(c *cli.Context) (util.Session, error) {
	if name := c.String("username"); name != "" {
		return services.LoginOffline(name)
	}
	s, err := services.LoadSession()
	if errors.Is(err, services.ErrNoSession) {
		return util.Session{}, errors.New("not logged in, run login <username> or pass --username")
	}
	return s, err
}

func main() {
	app := &cli.App{
		Name:  "yagua",
		Usage: "Install and launch the game from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultPath(), Usage: "config file"},
			&cli.StringFlag{Name: "root", Usage: "game directory, overrides game_root"},
			&cli.BoolFlag{Name: "debug", Usage: "print debug messages"},
		},
		Commands: []*cli.Command{
			{
				Name:    "versions",
				Aliases: []string{"ls"},
				Usage:   "List available versions",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "snapshots", Usage: "include snapshots and old versions"},
					&cli.StringFlag{Name: "min", Usage: "only list versions from this one up"},
				},
				Action: func(c *cli.Context) error {
					l, err := setup(c)
					if err != nil {
						return err
					}
					catalog, err := l.Versions.Catalog()
					if err != nil {
						return err
					}

					// Installed versions the catalog does not know, such as loader profiles.
					all := append([]util.VersionDescriptor(nil), catalog.Versions...)
					for _, id := range l.Installed.List() {
						if _, ok := catalog.Find(id); !ok {
							all = append(all, util.VersionDescriptor{Id: id, Type: "local"})
						}
					}

					var rows []util.VersionDescriptor
					lid, ltype := len("VERSION:"), len("TYPE:")
					for _, v := range all {
						if !c.Bool("snapshots") && v.Type != "release" && v.Type != "local" {
							continue
						}
						if !newerOrEqual(v.Id, c.String("min")) {
							continue
						}
						rows = append(rows, v)
						if len(v.Id) > lid {
							lid = len(v.Id)
						}
						if len(v.Type) > ltype {
							ltype = len(v.Type)
						}
					}

					fmt.Println()
					fmt.Println(text.AlignDefault.Apply("VERSION:", lid+2) + text.AlignDefault.Apply("TYPE:", ltype+2) + "INSTALLED:")
					for _, v := range rows {
						mark := ""
						if l.Installed.Contains(v.Id) {
							mark = text.Bold.Sprint("yes")
						}
						fmt.Println(text.AlignDefault.Apply(text.Bold.Sprint(v.Id), lid+2) + text.AlignDefault.Apply(v.Type, ltype+2) + mark)
					}
					fmt.Println()
					return nil
				},
			},
			{
				Name:      "install",
				Usage:     "Install a version",
				ArgsUsage: "<version>",
				Action: func(c *cli.Context) error {
					id := c.Args().Get(0)
					if id == "" {
						return errors.New("missing version")
					}
					l, err := setup(c)
					if err != nil {
						return err
					}
					return install(l, id)
				},
			},
			{
				Name:      "launch",
				Aliases:   []string{"play"},
				Usage:     "Launch a version or profile",
				ArgsUsage: "[version]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Usage: "launch this profile"},
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "play offline under this name"},
					&cli.IntFlag{Name: "ram", Usage: "heap size in MB"},
					&cli.StringFlag{Name: "server", Usage: "join this server on start"},
					&cli.IntFlag{Name: "port", Usage: "server port"},
				},
				Action: func(c *cli.Context) error {
					l, err := setup(c)
					if err != nil {
						return err
					}
					s, err := session(c)
					if err != nil {
						return err
					}

					opts := services.LaunchOptions{
						Session:    s,
						VersionId:  c.Args().Get(0),
						RamMb:      c.Int("ram"),
						ServerHost: c.String("server"),
						ServerPort: c.Int("port"),
					}
					if opts.VersionId == "" {
						profile, err := pickProfile(l, c.String("profile"))
						if err != nil {
							return err
						}
						opts.VersionId = profile.VersionId
						if opts.RamMb == 0 {
							opts.RamMb = profile.RamMb
						}
					}

					pterm.Info.Println("Launching " + opts.VersionId + " as " + s.Username)
					err = l.BuildAndLaunch(opts,
						func(line string) { fmt.Println(line) },
						func(line string) { fmt.Fprintln(os.Stderr, line) })
					var exitErr *util.GameExitError
					if errors.As(err, &exitErr) {
						return cli.Exit("game exited with status "+strconv.Itoa(exitErr.Code), exitErr.Code)
					}
					return err
				},
			},
			{
				Name:      "login",
				Usage:     "Remember an offline player name",
				ArgsUsage: "<username>",
				Action: func(c *cli.Context) error {
					s, err := services.LoginOffline(c.Args().Get(0))
					if err != nil {
						return err
					}
					if err := services.SaveSession(s); err != nil {
						return err
					}
					pterm.Success.Println("Logged in as " + s.Username + " (" + s.Uuid + ")")
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Forget the saved player",
				Action: func(c *cli.Context) error {
					if err := services.ClearSession(); err != nil {
						return err
					}
					pterm.Success.Println("Logged out")
					return nil
				},
			},
			{
				Name:      "loader",
				Usage:     "Install a mod loader profile and the version it runs on",
				ArgsUsage: "<fabric|quilt> <game version> [loader version]",
				Action: func(c *cli.Context) error {
					args := c.Args()
					meta, ok := api.Loaders[args.Get(0)]
					if !ok {
						return fmt.Errorf("unknown loader %q", args.Get(0))
					}
					game := args.Get(1)
					if game == "" {
						return errors.New("missing game version")
					}

					l, err := setup(c)
					if err != nil {
						return err
					}
					supported, err := l.Client.IsLoaderGameVersionSupported(meta, game)
					if err != nil {
						return err
					}
					if !supported {
						return fmt.Errorf("%s does not support %s", meta.Name, game)
					}

					loader := args.Get(2)
					if loader == "" {
						if loader, err = l.Client.GetLatestLoaderVersion(meta); err != nil {
							return err
						}
					}
					id, err := l.Client.InstallLoaderProfile(l.Layout, meta, game, loader)
					if err != nil {
						return err
					}
					return install(l, id)
				},
			},
			{
				Name:  "profile",
				Usage: "Manage profiles",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Create a profile",
						ArgsUsage: "<name> <version>",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "ram", Usage: "heap size in MB"},
						},
						Action: func(c *cli.Context) error {
							l, err := setup(c)
							if err != nil {
								return err
							}
							profile := util.Profile{Name: c.Args().Get(0), VersionId: c.Args().Get(1), RamMb: c.Int("ram")}
							if err := services.CreateProfile(l.Layout, profile); err != nil {
								return err
							}
							pterm.Success.Println("Created " + profile.Name)
							return services.SetActiveProfile(l.Layout, profile.Name)
						},
					},
					{
						Name:      "use",
						Usage:     "Select the profile launch uses by default",
						ArgsUsage: "<name>",
						Action: func(c *cli.Context) error {
							l, err := setup(c)
							if err != nil {
								return err
							}
							profile, err := services.GetProfile(l.Layout, c.Args().Get(0))
							if err != nil {
								return err
							}
							return services.SetActiveProfile(l.Layout, profile.Name)
						},
					},
					{
						Name:      "rm",
						Aliases:   []string{"remove"},
						Usage:     "Remove a profile",
						ArgsUsage: "<name>",
						Action: func(c *cli.Context) error {
							l, err := setup(c)
							if err != nil {
								return err
							}
							if err := services.DeleteProfile(l.Layout, c.Args().Get(0)); err != nil {
								return err
							}
							pterm.Success.Println("Removed " + c.Args().Get(0))
							return nil
						},
					},
					{
						Name:    "ls",
						Aliases: []string{"list"},
						Usage:   "List profiles",
						Action: func(c *cli.Context) error {
							l, err := setup(c)
							if err != nil {
								return err
							}
							profiles, err := services.ListProfiles(l.Layout)
							if err != nil {
								return err
							}
							active, _, err := services.ActiveProfile(l.Layout)
							if err != nil {
								return err
							}

							lname, lversion := len("NAME:"), len("VERSION:")
							for _, p := range profiles {
								if len(p.Name) > lname {
									lname = len(p.Name)
								}
								if len(p.VersionId) > lversion {
									lversion = len(p.VersionId)
								}
							}

							fmt.Println()
							fmt.Println(text.AlignDefault.Apply("NAME:", lname+2) + text.AlignDefault.Apply("VERSION:", lversion+2) + "RAM:")
							for _, p := range profiles {
								name := p.Name
								if p.Name == active.Name {
									name = text.Bold.Sprint(p.Name)
								}
								ram := "default"
								if p.RamMb > 0 {
									ram = strconv.Itoa(p.RamMb) + "M"
								}
								fmt.Println(text.AlignDefault.Apply(name, lname+2) + text.AlignDefault.Apply(text.Underline.Sprint(p.VersionId), lversion+2) + ram)
							}
							fmt.Println()
							return nil
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		util.Fatal(err)
	}
}

func pickProfile(l *services.Launcher, name string) (util.Profile, error) {
	if name != "" {
		return services.GetProfile(l.Layout, name)
	}
	profile, ok, err := services.ActiveProfile(l.Layout)
	if err != nil {
		return util.Profile{}, err
	}
	if !ok {
		return util.Profile{}, errors.New("no version given and no active profile")
	}
	return profile, nil
}
