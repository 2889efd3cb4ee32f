// Package main provides a CLI tool for generating test tokens for the
// campusplace API. These tokens use the dev signing key and will NOT work
// against a production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "campusplace/internal/jwt_token"
	id "campusplace/pkg/domain"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer     = "campusplace"
	defaultAudience   = "campusplace"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

type tokenOutput struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ExpiresIn string `json:"expires_in"`
	Principal string `json:"principal_id"`
	Role      string `json:"role,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	Usage     string `json:"usage"`
}

func main() {
	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	accessPrincipal := accessCmd.String("principal-id", "", "Principal ID (UUID). Generated if empty.")
	accessRole := accessCmd.String("role", "admin", "Role: superadmin, admin, moderator or student")
	accessTenant := accessCmd.String("tenant-id", "", "Tenant ID (UUID). Required unless role is superadmin.")
	accessTTL := accessCmd.Duration("ttl", defaultAccessTTL, "Token time-to-live")
	accessJSON := accessCmd.Bool("json", false, "Output as JSON")

	refreshCmd := flag.NewFlagSet("refresh", flag.ExitOnError)
	refreshPrincipal := refreshCmd.String("principal-id", "", "Principal ID (UUID). Generated if empty.")
	refreshTTL := refreshCmd.Duration("ttl", defaultRefreshTTL, "Token time-to-live")
	refreshJSON := refreshCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access":
		_ = accessCmd.Parse(os.Args[2:])
		generateAccess(*accessPrincipal, *accessRole, *accessTenant, *accessTTL, *accessJSON)
	case "refresh":
		_ = refreshCmd.Parse(os.Args[2:])
		generateRefresh(*refreshPrincipal, *refreshTTL, *refreshJSON)
	default:
		printUsage()
		os.Exit(1)
	}
}

func generateAccess(principal, role, tenant string, ttl time.Duration, asJSON bool) {
	principalID := parseOrNewPrincipal(principal)

	var tenantID id.TenantID
	if role != "superadmin" {
		if tenant == "" {
			fmt.Fprintln(os.Stderr, "error: -tenant-id is required for non-superadmin roles")
			os.Exit(1)
		}
		parsed, err := id.ParseTenantID(tenant)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid -tenant-id:", err)
			os.Exit(1)
		}
		tenantID = parsed
	}

	svc := jwttoken.NewJWTService(devSigningKey, defaultIssuer, defaultAudience, ttl, defaultRefreshTTL)
	token, err := svc.GenerateAccessToken(principalID, role, tenantID, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to generate token:", err)
		os.Exit(1)
	}

	emit(asJSON, tokenOutput{
		Token:     token,
		Type:      "access",
		ExpiresIn: ttl.String(),
		Principal: principalID.String(),
		Role:      role,
		TenantID:  tenant,
		Usage:     `curl -H "Authorization: Bearer <token>" http://localhost:8080/api/jobs`,
	})
}

func generateRefresh(principal string, ttl time.Duration, asJSON bool) {
	principalID := parseOrNewPrincipal(principal)

	svc := jwttoken.NewJWTService(devSigningKey, defaultIssuer, defaultAudience, defaultAccessTTL, ttl)
	token, handle, err := svc.GenerateRefreshToken(principalID, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to generate token:", err)
		os.Exit(1)
	}

	emit(asJSON, tokenOutput{
		Token:     token,
		Type:      "refresh",
		ExpiresIn: ttl.String(),
		Principal: principalID.String(),
		Usage:     "stored handle for this token: " + handle,
	})
}

func parseOrNewPrincipal(raw string) id.PrincipalID {
	if raw == "" {
		return id.PrincipalID(uuid.New())
	}
	principalID, err := id.ParsePrincipalID(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: invalid -principal-id:", err)
		os.Exit(1)
	}
	return principalID
}

func emit(asJSON bool, out tokenOutput) {
	if asJSON {
		encoded, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(encoded))
		return
	}
	fmt.Println(out.Token)
	fmt.Fprintln(os.Stderr, "# type:", out.Type, "ttl:", out.ExpiresIn, "principal:", out.Principal)
	fmt.Fprintln(os.Stderr, "#", out.Usage)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: tokengen <command> [flags]

Commands:
  access    Generate an access token (role and tenant claims)
  refresh   Generate a refresh token (and print its storage handle)

Run 'tokengen <command> -h' for flags.`)
}
