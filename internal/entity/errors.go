package entity

import "errors"

var (
	ErrGroupBudgetExceeded = errors.New("group score budget of 50 exceeded")
	ErrGroupNotFound       = errors.New("whatsapp group not found")
	ErrLabelNotFound       = errors.New("label mapping not found")
	ErrLabelInUse          = errors.New("label mapping still has matching leads, archive it instead")
	ErrDuplicateLabel      = errors.New("an active mapping with this label already exists")
	ErrRuleNotFound        = errors.New("engagement rule not found")
	ErrLeadNotFound        = errors.New("lead not found")
	ErrCampaignNotFound    = errors.New("campaign not found")
)
