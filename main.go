package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pixelwords/internal/auth"
	"github.com/robalobadob/pixelwords/internal/config"
	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/httpserver"
	"github.com/robalobadob/pixelwords/internal/session"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	game, srvCfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	pool, err := content.Load(srvCfg.ContentFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", srvCfg.ContentFile).Msg("failed to load word content")
	}
	log.Info().Int("worlds", pool.WorldCount()).Msg("content loaded")

	st, closeStore, err := openStore(srvCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	reg := session.NewRegistry(session.Options{
		Config: game,
		Pool:   pool,
		Store:  st,
		Tick:   100 * time.Millisecond,
	})
	defer reg.Close()
	if err := reg.StartSweeper(srvCfg.SweepInterval, srvCfg.AttemptIdle); err != nil {
		log.Fatal().Err(err).Msg("failed to start sweeper")
	}

	srv := httpserver.New(httpserver.Deps{
		Store:    st,
		Pool:     pool,
		Registry: reg,
		Auth: auth.New(auth.Config{
			Secret:      srvCfg.JWTSecret,
			ExpiresDays: srvCfg.JWTExpiresDays,
			CookieName:  srvCfg.CookieName,
			Secure:      srvCfg.CookieSecure,
		}),
		Game:   game,
		Origin: srvCfg.ClientOrigin,
	})

	go func() {
		log.Info().Str("port", srvCfg.Port).Msg("starting pixelwords server")
		if err := srv.Start(":" + srvCfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")
}
