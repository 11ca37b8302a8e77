// Comando writer_token emite el JWT que identifica a un escritor (caja, tablet) ante sus pares.
//
// Uso:
//
//	JWT_SECRET=... LEDGER_WRITER_ID=caja-01 go run ./cmd/writer_token -writer caja-02 -company tienda-centro
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/Inventario-lotes/pkg/config"
	"github.com/jhoicas/Inventario-lotes/pkg/jwt"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

func main() {
	writerID := flag.String("writer", "", "writer_id del dispositivo que usará el token (por defecto LEDGER_WRITER_ID)")
	companyID := flag.String("company", "", "company_id opcional")
	minutes := flag.Int("minutes", 0, "vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: os.Stderr})

	if *writerID == "" {
		*writerID = cfg.Ledger.WriterID
	}
	if *minutes <= 0 {
		*minutes = cfg.JWT.Expiration
	}
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET vacío: los pares no exigen token")
	}

	token, err := jwt.Generate(cfg.JWT.Secret, *writerID, *companyID, cfg.JWT.Issuer, *minutes)
	if err != nil {
		log.Fatal().Err(err).Msg("emitir token")
	}
	log.Info().Str("writer_id", *writerID).Int("minutes", *minutes).Msg("token emitido")
	fmt.Println(token)
}
