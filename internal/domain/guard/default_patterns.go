// Package guard provides the command and file validation engine.
//
// This file is the single source of truth for the built-in pattern tables.
// Each table is ordered; matching scans in order and stops on the first hit.
// The deny table holds categorically destructive shapes that can never be
// overridden; the warn table holds risky shapes that escalate to ask.
package guard

// defaultDenyPatterns returns the built-in command-deny table.
//
// Security context: each entry is documented with its attack vector. These
// shapes protect against common vectors identified in OWASP, MITRE ATT&CK,
// and real-world incident reports. A deny hit blocks execution outright.
func defaultDenyPatterns() []ValidationPattern {
	return []ValidationPattern{
		// === Destructive file operations ===
		// Attack: data destruction, system sabotage.

		// rm targeting root, home, or a wildcard can recursively delete
		// critical system or user data.
		mustPattern(`rm\s+(-\w+\s+)*[/~*]`, "destructive-rm", "destructive rm command"),
		// rm -rf bypasses prompts and deletes recursively; the classic
		// "rm -rf /" shape.
		mustPattern(`rm\s+-\w*r\w*f|rm\s+-\w*f\w*r`, "recursive-force-delete", "recursive force delete"),
		// --no-preserve-root disables the only safety rail rm has left.
		mustPattern(`rm\s+.*--no-preserve-root`, "no-preserve-root", "rm with --no-preserve-root"),
		// Deleting kernel or boot files renders the system unbootable.
		mustPattern(`rm\s+.*(/boot/|/vmlinuz)`, "boot-file-delete", "delete kernel or boot files"),

		// === Filesystem and disk destruction ===
		// Attack: disk overwrite, filesystem corruption. Bypasses filesystem
		// protections entirely.

		// mkfs creates a new filesystem, destroying all data on the device.
		mustPattern(`mkfs(\.|\s)`, "filesystem-format", "filesystem format"),
		// fdisk/parted rewrite partition tables.
		mustPattern(`(fdisk|parted)\s+`, "disk-partitioning", "disk partitioning"),
		// dd reads raw data and can overwrite disk blocks directly.
		mustPattern(`dd\s+if=`, "raw-disk-write", "low-level disk operation"),
		// Direct writes to block devices overwrite sectors under the filesystem.
		mustPattern(`>\s*/dev/(sd|nvme|hd)`, "block-device-write", "write to disk device"),

		// === Fork bomb ===
		// Attack: resource exhaustion; the system becomes unresponsive and
		// needs a hard reboot.
		mustPattern(`:\(\)\s*\{[^}]*:\s*\|\s*:[^}]*&[^}]*\}`, "fork-bomb", "fork bomb"),
		mustPattern(`:\(\)\{\s*:\|:&\s*\};:`, "fork-bomb", "fork bomb"),

		// === Remote code execution ===
		// Attack: piping a download straight into a shell executes untrusted
		// remote code without inspection.
		mustPattern(`curl\s+[^|]*\|\s*(/usr)?(/bin/)?(ba|z)?sh`, "remote-code-execution", "remote code execution via curl"),
		mustPattern(`wget\s+[^|]*\|\s*(/usr)?(/bin/)?(ba|z)?sh`, "remote-code-execution", "remote code execution via wget"),

		// === Authentication and identity files ===
		// Attack: writing to passwd/shadow/sudoers enables authentication
		// bypass or grants root to arbitrary users.
		mustPattern(`>\s*/etc/(passwd|shadow|sudoers)`, "identity-file-write", "overwrite system identity file"),

		// === Insecure permissions on the root tree ===
		// Attack: chmod 777 on / exposes every file to every user.
		mustPattern(`chmod\s+(-R\s+)?777\s+/(\s|$)`, "insecure-chmod-root", "world-writable root filesystem"),

		// === Process massacre ===
		// Attack: SIGKILL to every process crashes the system immediately.
		mustPattern(`kill\s+(-9|-KILL|-SIGKILL)\s+(--\s+)?-1`, "kill-all-processes", "kill all processes"),
		mustPattern(`pkill\s+-9\s+-1`, "kill-all-processes", "kill all processes"),

		// === Critical package removal ===
		// Attack: removing systemd/glibc/coreutils/bash leaves the system
		// unable to function; recovery requires reinstall.
		mustPattern(`apt(-get)?\s+(remove|purge)\s+.*(systemd|glibc|libc6|coreutils|bash)`, "critical-package-removal", "critical package removal"),
		mustPattern(`(yum|dnf)\s+(erase|remove)\s+.*(glibc|systemd|coreutils|bash)`, "critical-package-removal", "critical package removal"),
	}
}

// defaultWarnPatterns returns the built-in command-warn table. These shapes
// are risky enough to surface, but not categorically destructive, so the
// decision escalates to ask instead of deny. Allow-overrides may relax
// entries in this table only.
func defaultWarnPatterns() []ValidationPattern {
	return []ValidationPattern{
		// === Privilege escalation ===
		mustPattern(`(^|\s)sudo\s`, "privilege-escalation", "sudo command"),
		mustPattern(`(^|\s)su(\s|$)`, "privilege-escalation", "switch user command"),
		mustPattern(`(^|\s)doas\s`, "privilege-escalation", "doas privilege escalation"),

		// === Permission and ownership weakening ===
		mustPattern(`chmod\s+(-R\s+)?777`, "insecure-chmod", "world-writable permissions"),
		mustPattern(`chown\s+(-R\s+)?root`, "ownership-change", "change ownership to root"),
		mustPattern(`chown\s+-R\s+\S+\s+/`, "ownership-change", "recursive ownership change on root"),

		// === Service and firewall manipulation ===
		mustPattern(`systemctl\s+(stop|disable|mask)\s`, "service-manipulation", "stop or disable system service"),
		mustPattern(`service\s+\S+\s+stop`, "service-manipulation", "stop system service"),
		mustPattern(`iptables\s+(-F|--flush)`, "firewall-manipulation", "flush firewall rules"),
		mustPattern(`ufw\s+disable`, "firewall-manipulation", "disable firewall"),
		mustPattern(`firewall-cmd\s+.*--remove`, "firewall-manipulation", "remove firewall rules"),

		// === Scheduled task manipulation ===
		mustPattern(`crontab\s+-[re]`, "crontab-manipulation", "remove or edit crontab"),
		mustPattern(`>\s*/etc/cron`, "crontab-manipulation", "modify cron files"),
		mustPattern(`>\s*/var/spool/cron`, "crontab-manipulation", "modify cron spool"),

		// === History and forensic evasion ===
		mustPattern(`history\s+-c`, "history-manipulation", "clear command history"),
		mustPattern(`>\s*~/\.bash_history`, "history-manipulation", "clear bash history"),
		mustPattern(`shred\s+.*history`, "history-manipulation", "shred history file"),

		// === Process manipulation ===
		mustPattern(`killall\s+-9`, "kill-by-name", "kill all processes by name"),

		// === Environment hijacking ===
		mustPattern(`export\s+LD_PRELOAD=`, "ld-preload-injection", "LD_PRELOAD code injection"),
		mustPattern(`export\s+PATH=(/tmp|/var/tmp|/dev/shm)`, "path-hijacking", "PATH binary hijacking"),

		// === Container escapes ===
		mustPattern(`docker\s+run\s+.*--privileged`, "privileged-container", "privileged container"),
		mustPattern(`nsenter\s+.*(--target|-t)\s*1(\s|$)`, "container-escape", "nsenter into the init process"),

		// === Destructive version control ===
		mustPattern(`git\s+push\s+.*(--force|-f)(\s|$)`, "destructive-git", "force push"),
		mustPattern(`git\s+reset\s+--hard`, "destructive-git", "hard reset discards work"),
		mustPattern(`git\s+clean\s+-\w*[fd]`, "destructive-git", "git clean removes untracked files"),

		// === find with execute or delete flags ===
		mustPattern(`find\s+.*(-exec\s|-execdir\s|-delete(\s|$)|-ok\s|-okdir\s)`, "find-dangerous-flags", "find with execute or delete flags"),
	}
}

// defaultFileBlockedPatterns returns the built-in table matched against the
// final path segment of a file operation. These are secret-like names,
// key-like extensions, and credential file names.
func defaultFileBlockedPatterns() []ValidationPattern {
	return []ValidationPattern{
		// Dotenv files carry API keys and connection strings. Template
		// variants carry placeholders, not secrets, and stay readable.
		mustPatternExcluding(`^\.env(\.|$)`, `^\.env\.(example|sample|template|test)$`,
			"environment-file", "environment file may contain secrets"),

		// SSH private keys. The .pub halves are public by definition.
		mustPattern(`^id_(rsa|dsa|ecdsa|ed25519)$`, "ssh-private-key", "SSH private key"),

		// Key material by extension.
		mustPattern(`\.(pem|key|p12|pfx|jks|keystore)$`, "key-material", "private key material"),

		// Tool-specific credential stores in the home directory.
		mustPattern(`^\.(netrc|npmrc|pypirc|git-credentials|dockercfg|htpasswd)$`,
			"credential-file", "credential file"),

		// Cloud provider credential payloads.
		mustPattern(`^credentials(\.json)?$`, "cloud-credentials", "cloud credentials file"),
		mustPattern(`^service[-_]?account.*\.json$`, "cloud-credentials", "service account key"),

		// Generic secrets files.
		mustPattern(`^secrets?\.(json|ya?ml|toml|env)$`, "secrets-file", "secrets file"),

		// Terraform state embeds provider credentials and resource secrets.
		mustPattern(`\.tfstate(\.backup)?$`, "terraform-state", "terraform state contains secrets"),
	}
}

// defaultPathBlockedPatterns returns the built-in table matched against the
// full (slash-normalized) path of a file operation. These are credential
// directories and system identity files wherever they appear in the path.
func defaultPathBlockedPatterns() []ValidationPattern {
	return []ValidationPattern{
		mustPattern(`(^|/)\.ssh(/|$)`, "ssh-directory", "SSH configuration directory"),
		mustPattern(`(^|/)\.aws(/|$)`, "aws-credentials", "AWS credentials directory"),
		mustPattern(`(^|/)\.gnupg(/|$)`, "gnupg-directory", "GnuPG keyring directory"),
		mustPattern(`(^|/)\.kube(/|$)`, "kubernetes-config", "kubeconfig directory"),
		mustPattern(`(^|/)\.config/gcloud(/|$)`, "gcloud-config", "gcloud credentials directory"),
		mustPattern(`(^|/)\.azure(/|$)`, "azure-config", "Azure credentials directory"),
		mustPattern(`(^|/)\.docker/config\.json$`, "docker-credentials", "docker registry credentials"),
		mustPattern(`(^|/)etc/(passwd|shadow|sudoers)(\.|$)`, "system-identity-file", "system identity file"),
	}
}
