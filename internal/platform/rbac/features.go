// Package rbac decides which console features and records a session identity may reach.
package rbac

import (
	memberdomain "iesa-console/backend/internal/member/domain"
)

// Feature names a gated area of the console.
type Feature string

const (
	FeatureDashboard Feature = "dashboard"
	FeatureEvents    Feature = "events"
	FeatureLeaders   Feature = "leaders"
	FeatureSpiritual Feature = "spiritual"
	FeatureHymns     Feature = "hymns"
	FeatureJIESA     Feature = "jiesa"
	FeatureDCIESA    Feature = "dciesa"
	FeatureDEBOS     Feature = "debos"
	FeatureSHIESA    Feature = "shiesa"
	FeatureSOSIESA   Feature = "sosiesa"
	FeatureTreasury  Feature = "treasury"
	FeatureSecretary Feature = "secretary"
	FeaturePatrimony Feature = "patrimony"
	FeatureMedia     Feature = "media"
	FeatureSettings  Feature = "settings"
)

// AllowList maps each known feature to the roles allowed in. An empty list means any authenticated actor.
type AllowList map[Feature][]memberdomain.Role

// DefaultAllowList returns the console's built-in feature table.
func DefaultAllowList() AllowList {
	const (
		leader     = memberdomain.RoleDeptLeader
		secretary  = memberdomain.RoleSecretary
		assistant  = memberdomain.RoleAssistant
		supervisor = memberdomain.RoleSupervisor
		treasurer  = memberdomain.RoleTreasurer
	)
	return AllowList{
		FeatureDashboard: nil,
		FeatureEvents:    nil,
		FeatureLeaders:   nil,
		FeatureSpiritual: nil,
		FeatureHymns:     nil,
		FeatureJIESA:     {leader, secretary, assistant},
		FeatureDCIESA:    {supervisor, leader, secretary},
		FeatureDEBOS:     {leader, secretary},
		FeatureSHIESA:    {leader, secretary},
		FeatureSOSIESA:   {leader, secretary},
		FeatureTreasury:  {memberdomain.RoleSuperAdmin, treasurer, secretary},
		FeatureSecretary: {secretary, leader},
		FeaturePatrimony: {assistant, leader},
		FeatureMedia:     {leader, secretary},
		FeatureSettings:  {memberdomain.RoleSuperAdmin},
	}
}

// Allows applies the allow-list rule for a non-super-admin role: unknown feature denies,
// empty list allows, otherwise role must be listed.
func (a AllowList) Allows(role memberdomain.Role, feature Feature) bool {
	roles, known := a[feature]
	if !known {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
