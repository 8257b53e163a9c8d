package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createEnqueueCampaignTool returns the enqueue_campaign tool definition
func createEnqueueCampaignTool() mcp.Tool {
	return mcp.NewTool("enqueue_campaign",
		mcp.WithDescription("Submit a new link-building campaign to the scheduler queue"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Campaign name"),
		),
		mcp.WithString("target_url",
			mcp.Required(),
			mcp.Description("URL the campaign builds links to"),
		),
		mcp.WithArray("keywords",
			mcp.WithStringItems(),
			mcp.Required(),
			mcp.Description("Keywords used for target discovery and content generation"),
		),
		mcp.WithArray("strategies",
			mcp.WithStringItems(),
			mcp.Description("Strategy tags to enable (default: blog-comment). One or more of: blog-comment, forum-profile, web2-platform, social-profile, contact-form, guest-post, resource-page, broken-link"),
		),
		mcp.WithString("priority",
			mcp.Description("Queue priority: low, medium, high, critical (default: medium)"),
		),
		mcp.WithNumber("daily_limit",
			mcp.Description("Maximum placements per day (default: 10)"),
		),
		mcp.WithNumber("total_links_target",
			mcp.Description("Total placements the campaign aims for (default: 50)"),
		),
	)
}

// createCampaignStatusTool returns the get_campaign_status tool definition
func createCampaignStatusTool() mcp.Tool {
	return mcp.NewTool("get_campaign_status",
		mcp.WithDescription("Retrieve the current status, progress and node assignment of a campaign"),
		mcp.WithString("campaign_id",
			mcp.Required(),
			mcp.Description("Campaign ID (format: cmp_{uuid})"),
		),
	)
}

// createListCampaignsTool returns the list_campaigns tool definition
func createListCampaignsTool() mcp.Tool {
	return mcp.NewTool("list_campaigns",
		mcp.WithDescription("List campaigns, optionally filtered by status"),
		mcp.WithString("status",
			mcp.Description("Filter: queued, processing, paused, completed, failed, retry"),
		),
	)
}

// createQueueStatsTool returns the queue_stats tool definition
func createQueueStatsTool() mcp.Tool {
	return mcp.NewTool("queue_stats",
		mcp.WithDescription("Get aggregate scheduler queue statistics and processing node health"),
	)
}

// createPauseCampaignTool returns the pause_campaign tool definition
func createPauseCampaignTool() mcp.Tool {
	return mcp.NewTool("pause_campaign",
		mcp.WithDescription("Pause a queued or processing campaign at the next strategy boundary"),
		mcp.WithString("campaign_id",
			mcp.Required(),
			mcp.Description("Campaign ID"),
		),
	)
}

// createResumeCampaignTool returns the resume_campaign tool definition
func createResumeCampaignTool() mcp.Tool {
	return mcp.NewTool("resume_campaign",
		mcp.WithDescription("Resume a paused campaign (re-queues it for dispatch)"),
		mcp.WithString("campaign_id",
			mcp.Required(),
			mcp.Description("Campaign ID"),
		),
	)
}

// createDeleteCampaignTool returns the delete_campaign tool definition
func createDeleteCampaignTool() mcp.Tool {
	return mcp.NewTool("delete_campaign",
		mcp.WithDescription("Delete a campaign and release its posting jobs. Processing campaigns require force=true"),
		mcp.WithString("campaign_id",
			mcp.Required(),
			mcp.Description("Campaign ID"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Force deletion of a campaign that is currently processing"),
		),
	)
}
