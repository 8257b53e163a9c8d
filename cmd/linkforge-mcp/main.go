package main

import (
	"flag"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"github.com/linkforge/linkforge/internal/common"
)

// The MCP server is a thin stdio bridge to a running LinkForge API. Logging
// goes to stderr; stdout belongs to the MCP protocol.
func main() {
	apiURL := flag.String("api", "", "LinkForge API base URL (default http://localhost:8085)")
	flag.Parse()

	base := *apiURL
	if base == "" {
		base = os.Getenv("LINKFORGE_API")
	}
	if base == "" {
		base = "http://localhost:8085"
	}

	log.DefaultLogger = log.Logger{
		Level:  log.WarnLevel,
		Writer: &log.ConsoleWriter{Writer: os.Stderr},
	}

	client := newAPIClient(base, 30*time.Second)

	mcpServer := server.NewMCPServer(
		"linkforge",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createEnqueueCampaignTool(), handleEnqueueCampaign(client))
	mcpServer.AddTool(createCampaignStatusTool(), handleCampaignStatus(client))
	mcpServer.AddTool(createListCampaignsTool(), handleListCampaigns(client))
	mcpServer.AddTool(createQueueStatsTool(), handleQueueStats(client))
	mcpServer.AddTool(createPauseCampaignTool(), handlePauseCampaign(client))
	mcpServer.AddTool(createResumeCampaignTool(), handleResumeCampaign(client))
	mcpServer.AddTool(createDeleteCampaignTool(), handleDeleteCampaign(client))

	log.Info().Str("api", base).Msg("LinkForge MCP server starting on stdio")

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
