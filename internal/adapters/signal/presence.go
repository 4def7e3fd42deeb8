package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"signalhub/internal/domain"
)

func (ctl *Controller) handleRegister(cid domain.ConnID, conn *wsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad register payload")
		ctl.sendError(conn, "bad-payload")
		return
	}

	if err := ctl.Orch.Register(cid, p.Name, conn); err != nil {
		switch {
		case errors.Is(err, domain.ErrNameTaken):
			ctl.sendError(conn, "name-taken")
		case errors.Is(err, domain.ErrAlreadyRegistered):
			ctl.sendError(conn, "already-registered")
		case errors.Is(err, domain.ErrNameEmpty), errors.Is(err, domain.ErrNameTooLong):
			ctl.sendError(conn, "invalid-name")
		default:
			ctl.sendError(conn, "register-failed")
		}
		return
	}

	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{Type: "registered", Name: p.Name})
}
