package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func jsonResult(payload map[string]interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return textResult(fmt.Sprintf("Error formatting response: %v", err))
	}
	return textResult(string(data))
}

// handleEnqueueCampaign implements the enqueue_campaign tool
func handleEnqueueCampaign(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil || name == "" {
			return textResult("Error: name parameter is required"), nil
		}
		targetURL, err := request.RequireString("target_url")
		if err != nil || targetURL == "" {
			return textResult("Error: target_url parameter is required"), nil
		}
		keywords := request.GetStringSlice("keywords", nil)
		if len(keywords) == 0 {
			return textResult("Error: at least one keyword is required"), nil
		}

		strategies := request.GetStringSlice("strategies", []string{"blog-comment"})
		strategyConfigs := make([]map[string]interface{}, 0, len(strategies))
		for _, tag := range strategies {
			strategyConfigs = append(strategyConfigs, map[string]interface{}{
				"type":    tag,
				"enabled": true,
			})
		}

		body := map[string]interface{}{
			"owner_id": "mcp",
			"priority": request.GetString("priority", "medium"),
			"config": map[string]interface{}{
				"name":               name,
				"target_url":         targetURL,
				"keywords":           keywords,
				"daily_limit":        request.GetInt("daily_limit", 10),
				"total_links_target": request.GetInt("total_links_target", 50),
				"strategies":         strategyConfigs,
			},
		}

		payload, err := client.enqueueCampaign(ctx, body)
		if err != nil {
			log.Error().Err(err).Str("name", name).Msg("Enqueue failed")
			return textResult(fmt.Sprintf("Enqueue error: %v", err)), nil
		}
		return jsonResult(payload), nil
	}
}

// handleCampaignStatus implements the get_campaign_status tool
func handleCampaignStatus(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		campaignID, err := request.RequireString("campaign_id")
		if err != nil || campaignID == "" {
			return textResult("Error: campaign_id parameter is required"), nil
		}

		payload, err := client.campaignStatus(ctx, campaignID)
		if err != nil {
			return textResult(fmt.Sprintf("Status error: %v", err)), nil
		}
		return jsonResult(payload), nil
	}
}

// handleListCampaigns implements the list_campaigns tool
func handleListCampaigns(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := client.listCampaigns(ctx, request.GetString("status", ""))
		if err != nil {
			return textResult(fmt.Sprintf("List error: %v", err)), nil
		}
		return jsonResult(payload), nil
	}
}

// handleQueueStats implements the queue_stats tool
func handleQueueStats(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := client.queueStats(ctx)
		if err != nil {
			return textResult(fmt.Sprintf("Stats error: %v", err)), nil
		}
		return jsonResult(payload), nil
	}
}

// handlePauseCampaign implements the pause_campaign tool
func handlePauseCampaign(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		campaignID, err := request.RequireString("campaign_id")
		if err != nil || campaignID == "" {
			return textResult("Error: campaign_id parameter is required"), nil
		}

		payload, err := client.pauseCampaign(ctx, campaignID)
		if err != nil {
			return textResult(fmt.Sprintf("Pause error: %v", err)), nil
		}
		return jsonResult(payload), nil
	}
}

// handleResumeCampaign implements the resume_campaign tool
func handleResumeCampaign(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		campaignID, err := request.RequireString("campaign_id")
		if err != nil || campaignID == "" {
			return textResult("Error: campaign_id parameter is required"), nil
		}

		payload, err := client.resumeCampaign(ctx, campaignID)
		if err != nil {
			return textResult(fmt.Sprintf("Resume error: %v", err)), nil
		}
		return jsonResult(payload), nil
	}
}

// handleDeleteCampaign implements the delete_campaign tool
func handleDeleteCampaign(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		campaignID, err := request.RequireString("campaign_id")
		if err != nil || campaignID == "" {
			return textResult("Error: campaign_id parameter is required"), nil
		}

		payload, err := client.deleteCampaign(ctx, campaignID, request.GetBool("force", false))
		if err != nil {
			return textResult(fmt.Sprintf("Delete error: %v", err)), nil
		}
		return jsonResult(payload), nil
	}
}
