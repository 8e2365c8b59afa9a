package emission

// Service identifies a tracked streaming or social service.
type Service string

const (
	ServiceYouTube    Service = "YOUTUBE"
	ServiceNetflix    Service = "NETFLIX"
	ServiceTwitch     Service = "TWITCH"
	ServiceDisneyPlus Service = "DISNEY_PLUS"
	ServiceSpotify    Service = "SPOTIFY"
	ServiceAppleMusic Service = "APPLE_MUSIC"
	ServiceTikTok     Service = "TIKTOK"
	ServiceInstagram  Service = "INSTAGRAM"
	ServiceVideoCall  Service = "VIDEO_CALL"
	ServiceGeneral    Service = "GENERAL"
)

// Kind groups services into broad usage categories for reporting.
type Kind string

const (
	KindVideoStreaming Kind = "video-streaming"
	KindMusicStreaming Kind = "music-streaming"
	KindSocial         Kind = "social"
	KindVideoCall      Kind = "video-call"
	KindGeneral        Kind = "general"
)

// rates holds the heuristic emission rate for each service in grams of
// CO2 per minute of active viewing. These are fixed constants, not
// measurements.
var rates = map[Service]float64{
	ServiceYouTube:    0.9,
	ServiceNetflix:    0.9,
	ServiceTwitch:     0.85,
	ServiceDisneyPlus: 0.95,
	ServiceSpotify:    0.025,
	ServiceAppleMusic: 0.03,
	ServiceTikTok:     0.7,
	ServiceInstagram:  0.45,
	ServiceVideoCall:  1.2,
	ServiceGeneral:    0.0033,
}

var kinds = map[Service]Kind{
	ServiceYouTube:    KindVideoStreaming,
	ServiceNetflix:    KindVideoStreaming,
	ServiceTwitch:     KindVideoStreaming,
	ServiceDisneyPlus: KindVideoStreaming,
	ServiceSpotify:    KindMusicStreaming,
	ServiceAppleMusic: KindMusicStreaming,
	ServiceTikTok:     KindSocial,
	ServiceInstagram:  KindSocial,
	ServiceVideoCall:  KindVideoCall,
	ServiceGeneral:    KindGeneral,
}

// AllServices returns every known service tag in a stable order.
func AllServices() []Service {
	return []Service{
		ServiceYouTube,
		ServiceNetflix,
		ServiceTwitch,
		ServiceDisneyPlus,
		ServiceSpotify,
		ServiceAppleMusic,
		ServiceTikTok,
		ServiceInstagram,
		ServiceVideoCall,
		ServiceGeneral,
	}
}

// RateFor returns the emission rate for a service in g CO2/min.
// Unknown tags fall back to the GENERAL rate rather than failing.
func RateFor(s Service) float64 {
	if r, ok := rates[s]; ok {
		return r
	}
	return rates[ServiceGeneral]
}

// KindOf returns the usage category for a service. Unknown tags are
// treated as general browsing.
func KindOf(s Service) Kind {
	if k, ok := kinds[s]; ok {
		return k
	}
	return KindGeneral
}
