package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-proxy/internal/cache"
	"github.com/any-hub/any-proxy/internal/config"
	"github.com/any-hub/any-proxy/internal/limiter"
	"github.com/any-hub/any-proxy/internal/logging"
	"github.com/any-hub/any-proxy/internal/origin"
	"github.com/any-hub/any-proxy/internal/proxy"
	"github.com/any-hub/any-proxy/internal/server"
	"github.com/any-hub/any-proxy/internal/server/routes"
	"github.com/any-hub/any-proxy/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["listen_port"] = cfg.Global.ListenPort
		fields["admin_port"] = cfg.Global.AdminPort
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger, opts.configPath); err != nil {
		fmt.Fprintf(stdErr, "代理服务异常退出: %v\n", err)
		return 1
	}
	return 0
}

// serve 按“缓存 → 限流器 → 源站客户端 → 连接处理器 → 监听器”顺序装配组件，
// 所有连接共享同一份缓存与限流器，直到 ctx 结束。
func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger, configPath string) error {
	store, err := cache.New(cfg.Global.CacheCapacity, cache.WithEvictHook(func(key string) {
		logger.WithFields(logrus.Fields{"action": "cache", "url": key}).Debug("cache_evicted")
	}))
	if err != nil {
		return err
	}

	lim, err := limiter.New(cfg.Global.MaxConcurrent)
	if err != nil {
		return err
	}

	fetcher := origin.NewHTTPFetcher(origin.NewClient(cfg.Global), cfg.Global.MaxBodyBytes)
	handler, err := proxy.NewHandler(proxy.Options{
		Cache:       store,
		Fetcher:     fetcher,
		Skipper:     proxy.NewFilter(cfg.Filter),
		Logger:      logger,
		ReadTimeout: cfg.Global.ClientReadTimeout.DurationValue(),
	})
	if err != nil {
		return err
	}

	acceptor, err := server.NewAcceptor(server.AcceptorOptions{
		Handler: server.ConnHandlerFunc(func(ctx context.Context, conn net.Conn) {
			handler.Serve(ctx, conn)
		}),
		Limiter: lim,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	proxyLn, err := server.Listen(cfg.Global.ListenPort)
	if err != nil {
		return err
	}

	runOpts := server.RunOptions{
		Acceptor:      acceptor,
		ProxyListener: proxyLn,
		Logger:        logger,
	}
	if cfg.Global.AdminEnabled() {
		app, adminLn, err := startAdmin(cfg.Global.AdminPort, logger, routes.Sources{
			Cache:    store,
			Limiter:  lim,
			Acceptor: acceptor,
		})
		if err != nil {
			_ = proxyLn.Close()
			return err
		}
		runOpts.Admin = app
		runOpts.AdminListener = adminLn
	}

	fields := logging.BaseFields("startup", configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["admin_port"] = cfg.Global.AdminPort
	fields["max_concurrent"] = cfg.Global.MaxConcurrent
	fields["cache_capacity"] = cfg.Global.CacheCapacity
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("代理服务启动")

	return server.Run(ctx, runOpts)
}

// startAdmin 构建诊断端 Fiber 应用并同步绑定端口，绑定失败直接返回。
func startAdmin(port int, logger *logrus.Logger, src routes.Sources) (*fiber.App, net.Listener, error) {
	app, err := server.NewAdminApp(server.AdminOptions{Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	routes.RegisterDiagnosticsRoutes(app, src)

	ln, err := server.Listen(port)
	if err != nil {
		return nil, nil, err
	}
	return app, ln, nil
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("any-proxy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 ANY_PROXY_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("ANY_PROXY_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}
