package commands

import (
	"encoding/json"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

type UrlInfo struct {
	Url       string `json:"url"`
	Incognito bool   `json:"incognito"`
}

// LaunchUrlCommand opens the configured URL; an action is appended to it,
// or used alone when no URL is configured.
type LaunchUrlCommand struct {
	*entity.BaseCommand
	info     UrlInfo
	launcher port.URLLauncher
}

func NewLaunchUrlCommand(id *entity.Identity, urlInfo string, launcher port.URLLauncher, logger *zap.Logger) *LaunchUrlCommand {
	c := &LaunchUrlCommand{
		BaseCommand: entity.NewBaseCommand(id, ICON_LAUNCH_URL, urlInfo, logger),
		launcher:    launcher,
	}
	if strings.TrimSpace(urlInfo) != "" {
		if err := json.Unmarshal([]byte(urlInfo), &c.info); err != nil {
			c.Logger.Error("invalid url config, command is action-only", zap.Error(err))
			c.info = UrlInfo{}
		}
	}
	return c
}

func (c *LaunchUrlCommand) Info() UrlInfo {
	return c.info
}

func (c *LaunchUrlCommand) TurnOn() {
	c.launch("turn_on", c.info.Url)
}

func (c *LaunchUrlCommand) TurnOnWithAction(action string) {
	url := action
	if strings.TrimSpace(c.info.Url) != "" {
		url = c.info.Url + " " + action
	}
	c.launch("turn_on_with_action", url)
}

func (c *LaunchUrlCommand) launch(op string, url string) {
	c.Run(op, func() error {
		url = strings.TrimSpace(url)
		if url == "" {
			c.Logger.Error("unable to launch url, neither url nor action provided")
			return nil
		}
		return c.launcher.LaunchURL(url, c.info.Incognito)
	})
}
